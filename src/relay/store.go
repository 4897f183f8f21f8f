package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the seal and deposit tables. Every write that carries an
// invariant is a single conditional statement, the database resolves races
// between concurrent writers, not the callers.
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	self.log = logger.NewSublogger("seal-store")
	return
}

// GetSeal returns nil when the seal hash was never recorded
func (self *Store) GetSeal(ctx context.Context, sealHash string) (out *model.Seal, err error) {
	var seal model.Seal
	err = self.db.WithContext(ctx).
		Table(model.TableSeals).
		Where("seal_hash = ?", sealHash).
		Limit(1).
		Find(&seal).
		Error
	if err != nil {
		return
	}
	if seal.SealHash == "" {
		return nil, nil
	}
	return &seal, nil
}

// CreateSeal records the first observation of a seal. Concurrent observers
// of the same seal hash collide on the primary key and only one insert
// lands, created tells whether it was this one.
func (self *Store) CreateSeal(ctx context.Context, seal *model.Seal) (created bool, err error) {
	query := self.db.WithContext(ctx).
		Table(model.TableSeals).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seal_hash"}},
			DoNothing: true,
		}).
		Create(seal)
	if query.Error != nil {
		err = query.Error
		return
	}

	created = query.RowsAffected > 0
	return
}

// AdvanceSeal moves a seal one lifecycle step forward, optionally writing
// phase results in the same statement. The update is conditional on the
// expected current status, a lost race surfaces as a recoverable error and
// the seal gets picked up again with fresh state.
func (self *Store) AdvanceSeal(ctx context.Context, sealHash string, from, to model.SealStatus, updates map[string]interface{}) (err error) {
	if !from.CanAdvanceTo(to) {
		return errs.Rejection(fmt.Errorf("transition %s -> %s not allowed", from, to))
	}

	values := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for column, value := range updates {
		values[column] = value
	}

	query := self.db.WithContext(ctx).
		Table(model.TableSeals).
		Where("seal_hash = ? AND status = ?", sealHash, from).
		Updates(values)
	if query.Error != nil {
		return errs.Recoverable(query.Error)
	}
	if query.RowsAffected == 0 {
		return errs.Recoverable(errors.New("seal status changed underneath"))
	}

	self.log.WithField("seal_hash", sealHash).
		WithField("from", from).
		WithField("to", to).
		Debug("Seal advanced")
	return
}

// ResumeSeal moves a failed seal back into the lifecycle at the furthest
// phase its persisted artifacts support. Conditional on failed status so a
// double retry resumes once.
func (self *Store) ResumeSeal(ctx context.Context, sealHash string, to model.SealStatus) (resumed bool, err error) {
	query := self.db.WithContext(ctx).
		Table(model.TableSeals).
		Where("seal_hash = ? AND status = ?", sealHash, model.SealStatusFailed).
		Updates(map[string]interface{}{
			"status":     to,
			"error":      "",
			"updated_at": time.Now(),
		})
	if query.Error != nil {
		err = errs.Recoverable(query.Error)
		return
	}

	resumed = query.RowsAffected > 0
	if resumed {
		self.log.WithField("seal_hash", sealHash).
			WithField("to", to).
			Info("Failed seal resumed")
	}
	return
}

// FailSeal parks a seal with its error text. A seal that already reached a
// terminal status is left untouched.
func (self *Store) FailSeal(ctx context.Context, sealHash string, cause string) (err error) {
	err = self.db.WithContext(ctx).
		Table(model.TableSeals).
		Where("seal_hash = ? AND status NOT IN ?", sealHash,
			[]model.SealStatus{model.SealStatusCompleted, model.SealStatusFailed}).
		Updates(map[string]interface{}{
			"status":     model.SealStatusFailed,
			"error":      cause,
			"updated_at": time.Now(),
		}).
		Error
	return
}

// LoadStale lists non-terminal seals that haven't moved since the given
// time, oldest first
func (self *Store) LoadStale(ctx context.Context, olderThan time.Time, limit int) (out []*model.Seal, err error) {
	err = self.db.WithContext(ctx).
		Table(model.TableSeals).
		Where("status NOT IN ?", []model.SealStatus{model.SealStatusCompleted, model.SealStatusFailed}).
		Where("updated_at < ?", olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).
		Error
	return
}

func (self *Store) SetDepositStatus(ctx context.Context, depositId int64, status model.DepositStatus) (err error) {
	if depositId == 0 {
		return
	}
	err = self.db.WithContext(ctx).
		Table(model.TableDeposits).
		Where("id = ?", depositId).
		Update("status", status).
		Error
	return
}

func (self *Store) GetWallet(ctx context.Context, walletId int64) (out *model.CustodyWallet, err error) {
	var wallet model.CustodyWallet
	err = self.db.WithContext(ctx).
		Table(model.TableCustodyWallets).
		Where("id = ?", walletId).
		Limit(1).
		Find(&wallet).
		Error
	if err != nil {
		return
	}
	if wallet.Id == 0 {
		return nil, nil
	}
	return &wallet, nil
}
