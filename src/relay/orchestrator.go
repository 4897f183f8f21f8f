package relay

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/ika"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/sol"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives seals through their lifecycle phases. Workers call
// Process concurrently, each for a different seal. The queue guarantees one
// worker per seal hash and the conditional status updates in the store guard
// against anything that slips past it.
//
// Every phase checks on chain whether its work already happened before
// spending a transaction, so reprocessing after a crash or a sweep is safe.
type Orchestrator struct {
	config  *config.Config
	log     *logrus.Entry
	monitor monitoring.Monitor

	store     *Store
	pool      *Pool
	ikaClient *ika.Client
	solClient *sol.Client

	// One channel per publisher, fed on every major transition
	eventChannels []chan *SealStatusEvent
}

func NewOrchestrator(config *config.Config) (self *Orchestrator) {
	self = new(Orchestrator)
	self.config = config
	self.log = logger.NewSublogger("orchestrator")
	return
}

func (self *Orchestrator) WithMonitor(monitor monitoring.Monitor) *Orchestrator {
	self.monitor = monitor
	return self
}

func (self *Orchestrator) WithStore(store *Store) *Orchestrator {
	self.store = store
	return self
}

func (self *Orchestrator) WithPool(pool *Pool) *Orchestrator {
	self.pool = pool
	return self
}

func (self *Orchestrator) WithIkaClient(client *ika.Client) *Orchestrator {
	self.ikaClient = client
	return self
}

func (self *Orchestrator) WithSolClient(client *sol.Client) *Orchestrator {
	self.solClient = client
	return self
}

func (self *Orchestrator) WithEventChannel(ch chan *SealStatusEvent) *Orchestrator {
	self.eventChannels = append(self.eventChannels, ch)
	return self
}

// Process advances the seal identified by the queue item as far as it will
// go in one pass, ideally to completed. Returns a rejection for seals that
// can never succeed and a recoverable error when a retry may.
func (self *Orchestrator) Process(ctx context.Context, item *QueueItem) (err error) {
	seal, err := self.store.GetSeal(ctx, item.SealHash)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.StoreFailures.Inc()
		return errs.Recoverable(err)
	}
	if seal == nil {
		seal, err = self.createSeal(ctx, item.Event)
		if err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return errs.Recoverable(ctx.Err())
		default:
		}

		switch seal.Status {
		case model.SealStatusSealed:
			err = self.advance(ctx, seal, model.SealStatusSigning, nil)
		case model.SealStatusSigning:
			err = self.sign(ctx, seal)
		case model.SealStatusSigned:
			err = self.advance(ctx, seal, model.SealStatusVerifying, nil)
		case model.SealStatusVerifying:
			err = self.verify(ctx, seal)
		case model.SealStatusVerified:
			err = self.advance(ctx, seal, model.SealStatusMinting, nil)
		case model.SealStatusMinting:
			err = self.mint(ctx, seal)
		case model.SealStatusMinted:
			err = self.advance(ctx, seal, model.SealStatusClosing, nil)
		case model.SealStatusClosing:
			err = self.close(ctx, seal)
			if err == nil {
				self.onCompleted(ctx, seal, item)
				return
			}
		case model.SealStatusCompleted:
			// Another run already finished it
			return nil
		case model.SealStatusFailed:
			var resumed bool
			resumed, err = self.resume(ctx, seal)
			if err == nil && !resumed {
				// Someone else resumed it first, let them drive
				return nil
			}
		default:
			return errs.Rejection(fmt.Errorf("seal in unknown status: %s", seal.Status))
		}
		if err != nil {
			return
		}
	}
}

// Fail parks the seal for good and announces it. Called by the worker for
// rejections and for seals that exhausted their retries.
func (self *Orchestrator) Fail(ctx context.Context, item *QueueItem, cause string) {
	err := self.store.FailSeal(ctx, item.SealHash, cause)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.StoreFailures.Inc()
		self.log.WithError(err).
			WithField("seal_hash", item.SealHash).
			Error("Failed to park seal")
		return
	}

	self.monitor.GetReport().Relayer.State.SealsFailed.Inc()

	seal, err := self.store.GetSeal(ctx, item.SealHash)
	if err != nil || seal == nil {
		seal = &model.Seal{SealHash: item.SealHash, Status: model.SealStatusFailed, Error: cause}
		if item.Event != nil {
			seal.SourceChain = uint16(item.Event.SourceChain)
		}
	}
	self.publish(seal)
}

// Seals normally get their record from the deposit consumer or the event
// source before they reach the queue. When the record is missing it is
// recreated from the event fields, an event without them is undeliverable.
func (self *Orchestrator) createSeal(ctx context.Context, event *SealEvent) (seal *model.Seal, err error) {
	if event == nil || event.CustodyPubkey == "" {
		return nil, errs.Rejection(errors.New("seal record not found and the event carries no fields to create it from"))
	}

	seal = NewSeal(event)
	created, err := self.store.CreateSeal(ctx, seal)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.StoreFailures.Inc()
		return nil, errs.Recoverable(err)
	}
	if !created {
		// Lost the insert race, the other writer's record is authoritative
		seal, err = self.store.GetSeal(ctx, event.SealHash)
		if err != nil {
			return nil, errs.Recoverable(err)
		}
		if seal == nil {
			return nil, errs.Recoverable(errors.New("seal vanished after a lost insert race"))
		}
		return seal, nil
	}

	self.log.WithField("seal_hash", seal.SealHash).
		WithField("source_chain", tensei.Chain(seal.SourceChain).String()).
		Info("Seal record created")
	return
}

func (self *Orchestrator) advance(ctx context.Context, seal *model.Seal, to model.SealStatus, updates map[string]interface{}) (err error) {
	err = self.store.AdvanceSeal(ctx, seal.SealHash, seal.Status, to, updates)
	if err != nil {
		if errs.IsRecoverable(err) {
			self.monitor.GetReport().Relayer.Errors.StoreFailures.Inc()
		}
		return
	}
	seal.Status = to
	return
}

// The custody dwallet signs the 32 byte seal hash, the exact message the
// destination program checks the ed25519 signature against
func (self *Orchestrator) sign(ctx context.Context, seal *model.Seal) (err error) {
	if seal.Signature != "" {
		// Signed by an earlier run that died before advancing
		return self.advance(ctx, seal, model.SealStatusSigned, nil)
	}

	if seal.DwalletId == "" || seal.DwalletCapId == "" {
		return errs.Rejection(errors.New("seal has no custody dwallet to sign with"))
	}

	sealHash, err := self.decodeSealHash(seal.SealHash)
	if err != nil {
		return
	}

	signature, requestId, err := self.ikaClient.Sign(ctx, seal.DwalletId, seal.DwalletCapId, sealHash[:])
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.SignFailures.Inc()
		return fmt.Errorf("failed to sign seal hash: %w", err)
	}

	encoded := hex.EncodeToString(signature)
	err = self.advance(ctx, seal, model.SealStatusSigned, map[string]interface{}{
		"signature": encoded,
		"sign_tx":   requestId,
	})
	if err != nil {
		return
	}
	seal.Signature = encoded
	seal.SignTx = requestId

	self.publish(seal)
	return
}

// Attestation verification on the destination chain. An existing
// reincarnation record means a previous attempt landed, verifying again
// would only burn fees on a rejected transaction.
func (self *Orchestrator) verify(ctx context.Context, seal *model.Seal) (err error) {
	sealHash, err := self.decodeSealHash(seal.SealHash)
	if err != nil {
		return
	}

	record, err := self.solClient.GetReincarnationRecord(ctx, sealHash)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.VerifyFailures.Inc()
		return errs.Recoverable(err)
	}
	if record != nil {
		return self.advance(ctx, seal, model.SealStatusVerified, nil)
	}

	recipient, err := solana.PublicKeyFromBase58(seal.Recipient)
	if err != nil {
		return errs.Rejection(fmt.Errorf("malformed recipient address: %w", err))
	}

	attestationPubkey, err := self.decodeCustodyPubkey(seal.CustodyPubkey)
	if err != nil {
		return
	}

	signature, err := hex.DecodeString(seal.Signature)
	if err != nil {
		return errs.Rejection(fmt.Errorf("stored signature is not hex: %w", err))
	}

	verifyTx, err := self.solClient.VerifySeal(
		ctx,
		sealHash,
		seal.SourceChain,
		[]byte(seal.SourceContract),
		[]byte(seal.TokenId),
		attestationPubkey,
		signature,
		recipient,
	)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.VerifyFailures.Inc()
		return fmt.Errorf("failed to verify seal on chain: %w", err)
	}

	err = self.advance(ctx, seal, model.SealStatusVerified, map[string]interface{}{
		"verify_tx": verifyTx.String(),
	})
	if err != nil {
		return
	}
	seal.VerifyTx = verifyTx.String()

	self.publish(seal)
	return
}

// Minting the reborn asset. The program rejects a second mint for the same
// seal, the record's minted flag saves the doomed transaction and recovers
// the asset address from an attempt whose confirmation we missed.
func (self *Orchestrator) mint(ctx context.Context, seal *model.Seal) (err error) {
	sealHash, err := self.decodeSealHash(seal.SealHash)
	if err != nil {
		return
	}

	record, err := self.solClient.GetReincarnationRecord(ctx, sealHash)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.MintFailures.Inc()
		return errs.Recoverable(err)
	}
	if record != nil && record.Minted {
		err = self.advance(ctx, seal, model.SealStatusMinted, map[string]interface{}{
			"dest_asset_address": record.Mint.String(),
		})
		if err != nil {
			return
		}
		seal.DestAssetAddress = record.Mint.String()
		return
	}

	name := self.mintName(seal)
	if err = tensei.ValidateAssetFields(name, seal.MediaUri, seal.SourceContract, seal.TokenId); err != nil {
		return errs.Rejection(err)
	}

	recipient, err := solana.PublicKeyFromBase58(seal.Recipient)
	if err != nil {
		return errs.Rejection(fmt.Errorf("malformed recipient address: %w", err))
	}

	mintTx, asset, err := self.solClient.MintReborn(ctx, sealHash, name, seal.MediaUri, recipient)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.MintFailures.Inc()
		return fmt.Errorf("failed to mint reborn asset: %w", err)
	}

	err = self.advance(ctx, seal, model.SealStatusMinted, map[string]interface{}{
		"mint_tx":            mintTx.String(),
		"dest_asset_address": asset.String(),
	})
	if err != nil {
		return
	}
	seal.MintTx = mintTx.String()
	seal.DestAssetAddress = asset.String()

	self.publish(seal)
	return
}

// Closing the registry entry on the orchestration chain binds the minted
// asset to the seal and ends the lifecycle
func (self *Orchestrator) close(ctx context.Context, seal *model.Seal) (err error) {
	entry, err := self.ikaClient.GetRegistryEntry(ctx, seal.SealHash)
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.CloseFailures.Inc()
		return
	}

	closeTx := entry.CloseTx
	if !entry.Closed {
		closeTx, err = self.ikaClient.CloseRegistryEntry(ctx, seal.SealHash, seal.DestAssetAddress, seal.MintTx)
		if err != nil {
			self.monitor.GetReport().Relayer.Errors.CloseFailures.Inc()
			return fmt.Errorf("failed to close registry entry: %w", err)
		}
	}

	err = self.advance(ctx, seal, model.SealStatusCompleted, map[string]interface{}{
		"close_tx": closeTx,
	})
	if err != nil {
		return
	}
	seal.CloseTx = closeTx
	return
}

func (self *Orchestrator) onCompleted(ctx context.Context, seal *model.Seal, item *QueueItem) {
	if seal.DwalletId != "" {
		err := self.pool.MarkSealed(ctx, seal.DwalletId, seal.SealHash)
		if err != nil {
			// The reconciler converges wallet state later
			self.log.WithError(err).
				WithField("seal_hash", seal.SealHash).
				Warn("Failed to mark custody wallet sealed")
		}
	}

	if item.Event != nil && item.Event.DepositId != 0 {
		err := self.store.SetDepositStatus(ctx, item.Event.DepositId, model.DepositStatusProcessed)
		if err != nil {
			self.log.WithError(err).
				WithField("seal_hash", seal.SealHash).
				Warn("Failed to mark deposit processed")
		}
	}

	self.monitor.GetReport().Relayer.State.SealsCompleted.Inc()
	self.monitor.GetReport().Relayer.State.LastCompletedTimestamp.Store(time.Now().Unix())
	self.publish(seal)

	self.log.WithField("seal_hash", seal.SealHash).
		WithField("asset", seal.DestAssetAddress).
		Info("Seal completed")
}

// A retried seal resumes at the furthest phase its persisted artifacts
// support, finished work is never redone
func (self *Orchestrator) resume(ctx context.Context, seal *model.Seal) (resumed bool, err error) {
	to := resumeStatus(seal)
	resumed, err = self.store.ResumeSeal(ctx, seal.SealHash, to)
	if err != nil || !resumed {
		return
	}
	seal.Status = to
	seal.Error = ""
	return
}

func resumeStatus(seal *model.Seal) model.SealStatus {
	switch {
	case seal.DestAssetAddress != "" || seal.MintTx != "":
		return model.SealStatusMinted
	case seal.VerifyTx != "":
		return model.SealStatusVerified
	case seal.Signature != "":
		return model.SealStatusSigned
	}
	return model.SealStatusSealed
}

// Non-blocking fanout. A publisher that fell behind loses events, the seal
// table stays authoritative.
func (self *Orchestrator) publish(seal *model.Seal) {
	event := &SealStatusEvent{
		SealHash:         seal.SealHash,
		Status:           string(seal.Status),
		SourceChain:      int(seal.SourceChain),
		DestAssetAddress: seal.DestAssetAddress,
		Error:            seal.Error,
		Timestamp:        time.Now().UnixMilli(),
	}

	for _, ch := range self.eventChannels {
		select {
		case ch <- event:
		default:
			self.monitor.GetReport().Relayer.Errors.EventsDropped.Inc()
		}
	}
}

// The destination program caps names at 32 bytes, prefer the original name
// and fall back to a collection derived one
func (self *Orchestrator) mintName(seal *model.Seal) (name string) {
	name = seal.Name
	if name == "" {
		name = fmt.Sprintf("%s #%s", seal.Collection, seal.TokenId)
	}
	if len(name) > tensei.MaxNameLength {
		name = name[:tensei.MaxNameLength]
	}
	return
}

func (self *Orchestrator) decodeSealHash(sealHash string) (out [32]byte, err error) {
	raw, err := hex.DecodeString(sealHash)
	if err != nil || len(raw) != 32 {
		err = errs.Rejection(fmt.Errorf("malformed seal hash: %s", sealHash))
		return
	}
	copy(out[:], raw)
	return
}

func (self *Orchestrator) decodeCustodyPubkey(pubkey string) (out [32]byte, err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(pubkey, "0x"))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		err = errs.Rejection(errors.New("custody pubkey is not a 32 byte ed25519 key"))
		return
	}
	copy(out[:], raw)
	return
}
