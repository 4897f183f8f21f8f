package ika

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ika-tensei/relayer/src/utils/build_info"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/logger"
	"github.com/ika-tensei/relayer/src/utils/model"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Client talks to the Ika signing gateway. The gateway fronts the 2PC-MPC
// custody network: dwallet creation and threshold signing are asynchronous
// rounds, requested first and then polled until they settle.
type Client struct {
	client  *resty.Client
	config  *config.Config
	log     *logrus.Entry
	limiter ratelimit.Limiter
}

type Dwallet struct {
	DwalletId string `json:"dwallet_id"`
	CapId     string `json:"cap_id"`
	PublicKey string `json:"public_key"`
	Curve     string `json:"curve"`
}

type requestCreated struct {
	RequestId string `json:"request_id"`
}

type dwalletStatus struct {
	Status  string   `json:"status"`
	Dwallet *Dwallet `json:"dwallet"`
	Error   string   `json:"error"`
}

type signatureStatus struct {
	Status    string `json:"status"`
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

// Entry of the seal registry on the orchestration chain
type RegistryEntry struct {
	Exists       bool   `json:"exists"`
	Closed       bool   `json:"closed"`
	AssetAddress string `json:"asset_address"`
	CloseTx      string `json:"close_tx"`
}

type closeResult struct {
	TxDigest string `json:"tx_digest"`
}

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("ika-client")
	self.limiter = ratelimit.New(config.Ika.RequestsPerSecond)

	self.client =
		resty.New().
			SetBaseURL(config.Ika.GatewayUrl).
			SetTimeout(config.Ika.RequestTimeout).
			SetHeader("User-Agent", "ika-tensei/relayer/"+build_info.Version)

	if config.Ika.ApiKey != "" {
		self.client.SetHeader("Authorization", "Bearer "+config.Ika.ApiKey)
	}

	return
}

// Client errors carry the retry category, 4xx is a rejection, everything
// else may heal
func (self *Client) responseError(resp *resty.Response) (err error) {
	if resp.IsSuccess() {
		return nil
	}

	err = fmt.Errorf("gateway responded %s: %s", resp.Status(), resp.Body())
	if resp.StatusCode() >= 400 && resp.StatusCode() < 500 &&
		resp.StatusCode() != http.StatusTooManyRequests {
		return errs.Rejection(err)
	}
	return errs.Recoverable(err)
}

// CreateDwallet runs one DKG round. Blocks until the custody network settles
// or ctx expires, the caller bounds the wait.
func (self *Client) CreateDwallet(ctx context.Context, curve model.Curve) (out *Dwallet, err error) {
	self.limiter.Take()

	var created requestCreated
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"curve": string(curve)}).
		SetResult(&created).
		Post("/v1/dwallets")
	if err != nil {
		return nil, errs.Recoverable(err)
	}
	if err = self.responseError(resp); err != nil {
		return nil, err
	}

	self.log.WithField("request_id", created.RequestId).WithField("curve", curve).Debug("DKG round requested")

	for {
		select {
		case <-ctx.Done():
			return nil, errs.Recoverable(ctx.Err())
		case <-time.After(self.config.Ika.SignPollInterval):
		}

		self.limiter.Take()

		var status dwalletStatus
		resp, err = self.client.R().
			SetContext(ctx).
			SetResult(&status).
			Get("/v1/dwallets/" + created.RequestId)
		if err != nil {
			return nil, errs.Recoverable(err)
		}
		if err = self.responseError(resp); err != nil {
			return nil, err
		}

		switch status.Status {
		case statusCompleted:
			if status.Dwallet == nil {
				return nil, errs.Recoverable(errors.New("gateway reported completion without a dwallet"))
			}
			return status.Dwallet, nil
		case statusFailed:
			return nil, errs.Recoverable(fmt.Errorf("DKG round failed: %s", status.Error))
		}
	}
}

// Sign requests a threshold signature over the message and polls until the
// round completes. A round the gateway reports as failed is not retried, the
// request is spent. The request id is returned for audit trails.
func (self *Client) Sign(ctx context.Context, dwalletId string, capId string, message []byte) (signature []byte, requestId string, err error) {
	ctx, cancel := context.WithTimeout(ctx, self.config.Ika.SignTimeout)
	defer cancel()

	self.limiter.Take()

	var created requestCreated
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"dwallet_id": dwalletId,
			"cap_id":     capId,
			"message":    hex.EncodeToString(message),
		}).
		SetResult(&created).
		Post("/v1/signatures")
	if err != nil {
		return nil, "", errs.Recoverable(err)
	}
	if err = self.responseError(resp); err != nil {
		return nil, "", err
	}

	requestId = created.RequestId

	for {
		select {
		case <-ctx.Done():
			return nil, requestId, errs.Recoverable(ctx.Err())
		case <-time.After(self.config.Ika.SignPollInterval):
		}

		self.limiter.Take()

		var status signatureStatus
		resp, err = self.client.R().
			SetContext(ctx).
			SetResult(&status).
			Get("/v1/signatures/" + created.RequestId)
		if err != nil {
			return nil, requestId, errs.Recoverable(err)
		}
		if err = self.responseError(resp); err != nil {
			return nil, requestId, err
		}

		switch status.Status {
		case statusCompleted:
			signature, err = hex.DecodeString(status.Signature)
			if err != nil {
				err = errs.Rejection(fmt.Errorf("gateway returned a malformed signature: %w", err))
			}
			return
		case statusFailed:
			return nil, requestId, errs.Rejection(fmt.Errorf("signing round failed: %s", status.Error))
		}
	}
}

// GetRegistryEntry reads the seal registry entry on the orchestration chain
func (self *Client) GetRegistryEntry(ctx context.Context, sealHash string) (out *RegistryEntry, err error) {
	self.limiter.Take()

	out = new(RegistryEntry)
	resp, err := self.client.R().
		SetContext(ctx).
		SetResult(out).
		Get("/v1/registry/" + sealHash)
	if err != nil {
		return nil, errs.Recoverable(err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return &RegistryEntry{}, nil
	}
	if err = self.responseError(resp); err != nil {
		return nil, err
	}
	return
}

// CloseRegistryEntry marks the seal complete on the orchestration chain,
// binding the minted asset address to the registry entry
func (self *Client) CloseRegistryEntry(ctx context.Context, sealHash string, assetAddress string, mintTx string) (txDigest string, err error) {
	self.limiter.Take()

	var result closeResult
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"asset_address": assetAddress,
			"mint_tx":       mintTx,
		}).
		SetResult(&result).
		Post("/v1/registry/" + sealHash + "/close")
	if err != nil {
		return "", errs.Recoverable(err)
	}
	if err = self.responseError(resp); err != nil {
		return "", err
	}

	txDigest = result.TxDigest
	return
}
