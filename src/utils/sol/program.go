package sol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// VerifySeal submits the attestation to the reincarnation program. The
// ed25519 signature is checked by the native program in the same
// transaction, the record account is created on success.
func (self *Client) VerifySeal(
	ctx context.Context,
	sealHash [32]byte,
	sourceChain uint16,
	sourceContract []byte,
	tokenId []byte,
	attestationPubkey [32]byte,
	signature []byte,
	recipient solana.PublicKey,
) (out solana.Signature, err error) {
	verification, err := NewEd25519VerificationInstruction(attestationPubkey[:], signature, sealHash[:])
	if err != nil {
		return
	}

	verifySeal, err := NewVerifySealInstruction(
		self.programId,
		sealHash,
		sourceChain,
		sourceContract,
		tokenId,
		attestationPubkey,
		recipient,
		self.payer.PublicKey(),
	)
	if err != nil {
		return
	}

	// Verification has to come first, the program loads instruction 0
	out, err = self.SendAndConfirm(ctx, []solana.Instruction{verification, verifySeal})
	if err != nil {
		err = fmt.Errorf("verify seal transaction failed: %w", err)
		return
	}

	self.log.WithField("signature", out).WithField("recipient", recipient).Info("Seal verified on-chain")
	return
}

// MintReborn mints the Metaplex Core asset for a verified seal. A fresh
// keypair becomes the asset address and co-signs the transaction.
func (self *Client) MintReborn(
	ctx context.Context,
	sealHash [32]byte,
	name string,
	uri string,
	recipient solana.PublicKey,
) (out solana.Signature, asset solana.PublicKey, err error) {
	feeRecipient, err := self.FeeRecipient(ctx)
	if err != nil {
		err = fmt.Errorf("failed to resolve fee recipient: %w", err)
		return
	}

	assetKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return
	}
	asset = assetKey.PublicKey()

	mintReborn, err := NewMintRebornInstruction(
		self.programId,
		sealHash,
		name,
		uri,
		asset,
		recipient,
		self.payer.PublicKey(),
		feeRecipient,
	)
	if err != nil {
		return
	}

	out, err = self.SendAndConfirm(ctx, []solana.Instruction{mintReborn}, assetKey)
	if err != nil {
		err = fmt.Errorf("mint transaction failed: %w", err)
		return
	}

	self.log.WithField("signature", out).WithField("asset", asset).Info("Reborn asset minted")
	return
}
