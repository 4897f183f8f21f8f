package sol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Transactions are fetched with this version cap, legacy and v0 alike
var maxSupportedTransactionVersion = uint64(0)

type Client struct {
	config *config.Config
	log    *logrus.Entry
	rpc    *rpc.Client

	payer        solana.PrivateKey
	programId    solana.PublicKey
	feeRecipient solana.PublicKey
	commitment   rpc.CommitmentType
}

func NewClient(config *config.Config) (self *Client, err error) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("sol-client")

	self.rpc = rpc.NewWithCustomRPCClient(rpc.NewWithLimiter(
		config.Solana.RpcUrl,
		rate.Every(time.Second),
		config.Solana.RequestsPerSecond,
	))

	self.commitment = parseCommitment(config.Solana.Commitment)

	if config.Solana.ProgramId != "" {
		self.programId, err = solana.PublicKeyFromBase58(config.Solana.ProgramId)
		if err != nil {
			err = fmt.Errorf("failed to parse program id: %w", err)
			return
		}
	}

	if config.Solana.FeeRecipient != "" {
		self.feeRecipient, err = solana.PublicKeyFromBase58(config.Solana.FeeRecipient)
		if err != nil {
			err = fmt.Errorf("failed to parse fee recipient: %w", err)
			return
		}
	}

	if config.Solana.KeypairPath != "" {
		self.payer, err = solana.PrivateKeyFromSolanaKeygenFile(config.Solana.KeypairPath)
		if err != nil {
			err = fmt.Errorf("failed to load payer keypair: %w", err)
			return
		}
		self.log.WithField("payer", self.payer.PublicKey()).Info("Loaded payer keypair")
	}

	return
}

func parseCommitment(commitment string) rpc.CommitmentType {
	switch commitment {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

func (self *Client) ProgramId() solana.PublicKey {
	return self.programId
}

func (self *Client) Payer() solana.PrivateKey {
	return self.payer
}

// FeeRecipient is the account that receives the mint fee. Falls back to the
// guild treasury from the on-chain protocol config when not set explicitly.
func (self *Client) FeeRecipient(ctx context.Context) (out solana.PublicKey, err error) {
	if !self.feeRecipient.IsZero() {
		return self.feeRecipient, nil
	}

	protocolConfig, err := self.GetProtocolConfig(ctx)
	if err != nil {
		return
	}
	if protocolConfig == nil {
		err = errors.New("protocol config account not found")
		return
	}

	self.feeRecipient = protocolConfig.GuildTreasury
	out = self.feeRecipient
	return
}

// GetAccountData returns the raw account data, nil when the account does not exist
func (self *Client) GetAccountData(ctx context.Context, account solana.PublicKey) (data []byte, err error) {
	resp, err := self.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: self.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return
	}

	if resp.Value == nil {
		return nil, nil
	}

	data = resp.Value.Data.GetBinary()
	return
}

func (self *Client) GetProtocolConfig(ctx context.Context) (out *ProtocolConfig, err error) {
	address, _, err := FindConfigAddress(self.programId)
	if err != nil {
		return
	}

	data, err := self.GetAccountData(ctx, address)
	if err != nil || data == nil {
		return
	}

	return ParseProtocolConfig(data)
}

func (self *Client) GetCollectionConfig(ctx context.Context, sourceChain uint16, sourceContract []byte) (out *CollectionConfig, err error) {
	address, _, err := FindCollectionAddress(self.programId, sourceChain, sourceContract)
	if err != nil {
		return
	}

	data, err := self.GetAccountData(ctx, address)
	if err != nil || data == nil {
		return
	}

	return ParseCollectionConfig(data)
}

func (self *Client) GetReincarnationRecord(ctx context.Context, sealHash [32]byte) (out *ReincarnationRecord, err error) {
	address, _, err := FindRecordAddress(self.programId, sealHash)
	if err != nil {
		return
	}

	data, err := self.GetAccountData(ctx, address)
	if err != nil || data == nil {
		return
	}

	return ParseReincarnationRecord(data)
}

// GetSignaturesForAddress lists signatures of transactions that touched the
// account, newest first. Passing a non-zero until signature limits the scan to
// signatures that came after it.
func (self *Client) GetSignaturesForAddress(ctx context.Context, account solana.PublicKey, until solana.Signature, limit int) (out []*rpc.TransactionSignature, err error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Commitment: self.commitment,
	}
	if limit > 0 {
		opts.Limit = &limit
	}
	if !until.IsZero() {
		opts.Until = until
	}

	return self.rpc.GetSignaturesForAddressWithOpts(ctx, account, opts)
}

func (self *Client) GetTransaction(ctx context.Context, signature solana.Signature) (out *rpc.GetTransactionResult, err error) {
	return self.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     self.commitment,
		MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
	})
}

// SendAndConfirm signs the instructions with the payer and any extra signers,
// submits the transaction and polls until it reaches the configured
// commitment. Instruction order is preserved.
func (self *Client) SendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (signature solana.Signature, err error) {
	if len(self.payer) == 0 {
		err = errors.New("payer keypair not configured")
		return
	}

	recent, err := self.rpc.GetLatestBlockhash(ctx, self.commitment)
	if err != nil {
		err = fmt.Errorf("failed to get latest blockhash: %w", err)
		return
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(self.payer.PublicKey()),
	)
	if err != nil {
		err = fmt.Errorf("failed to create transaction: %w", err)
		return
	}

	keys := append([]solana.PrivateKey{self.payer}, signers...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to sign transaction: %w", err)
		return
	}

	signature, err = self.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       self.config.Solana.SkipPreflight,
		PreflightCommitment: self.commitment,
	})
	if err != nil {
		err = fmt.Errorf("failed to send transaction: %w", err)
		return
	}

	err = self.confirm(ctx, signature)
	return
}

func (self *Client) confirm(ctx context.Context, signature solana.Signature) (err error) {
	ctx, cancel := context.WithTimeout(ctx, self.config.Solana.ConfirmTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", signature, ctx.Err())
		case <-time.After(self.config.Solana.ConfirmInterval):
		}

		resp, err := self.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			self.log.WithError(err).WithField("signature", signature).Warn("Failed to get signature status")
			continue
		}

		if len(resp.Value) == 0 || resp.Value[0] == nil {
			continue
		}

		status := resp.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction %s failed: %v", signature, status.Err)
		}

		if self.isConfirmed(status.ConfirmationStatus) {
			return nil
		}
	}
}

func (self *Client) isConfirmed(status rpc.ConfirmationStatusType) bool {
	switch self.commitment {
	case rpc.CommitmentProcessed:
		return status == rpc.ConfirmationStatusProcessed ||
			status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	default:
		return status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	}
}
