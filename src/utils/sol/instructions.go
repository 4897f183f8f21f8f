package sol

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ed25519ProgramId = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")
	mplCoreProgramId = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")
)

// Anchor dispatches on the first 8 bytes of sha256("global:<method>")
func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

func writeBytesVec(buf *bytes.Buffer, data []byte) {
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])
	buf.Write(data)
}

func writeString(buf *bytes.Buffer, value string) {
	writeBytesVec(buf, []byte(value))
}

// NewVerifySealInstruction builds the instruction that checks a seal
// attestation on-chain and creates the reincarnation record. The transaction
// must carry the matching ed25519 verification instruction at index 0.
func NewVerifySealInstruction(
	programId solana.PublicKey,
	sealHash [32]byte,
	sourceChain uint16,
	sourceContract []byte,
	tokenId []byte,
	attestationPubkey [32]byte,
	recipient solana.PublicKey,
	payer solana.PublicKey,
) (out solana.Instruction, err error) {
	configAddress, _, err := FindConfigAddress(programId)
	if err != nil {
		return
	}
	collectionAddress, _, err := FindCollectionAddress(programId, sourceChain, sourceContract)
	if err != nil {
		return
	}
	recordAddress, _, err := FindRecordAddress(programId, sealHash)
	if err != nil {
		return
	}

	var data bytes.Buffer
	data.Write(anchorDiscriminator("verify_seal"))
	data.Write(sealHash[:])

	var chain [2]byte
	binary.LittleEndian.PutUint16(chain[:], sourceChain)
	data.Write(chain[:])

	writeBytesVec(&data, sourceContract)
	writeBytesVec(&data, tokenId)
	data.Write(attestationPubkey[:])
	data.Write(recipient.Bytes())

	out = solana.NewInstruction(programId, solana.AccountMetaSlice{
		solana.Meta(configAddress),
		solana.Meta(collectionAddress).WRITE(),
		solana.Meta(recordAddress).WRITE(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(recipient),
		solana.Meta(solana.SysVarInstructionsPubkey),
		solana.Meta(solana.SystemProgramID),
	}, data.Bytes())
	return
}

// NewMintRebornInstruction builds the instruction that mints the Metaplex
// Core asset for a verified seal. The asset account is a fresh keypair and
// must co-sign the transaction.
func NewMintRebornInstruction(
	programId solana.PublicKey,
	sealHash [32]byte,
	name string,
	uri string,
	asset solana.PublicKey,
	recipient solana.PublicKey,
	payer solana.PublicKey,
	feeRecipient solana.PublicKey,
) (out solana.Instruction, err error) {
	configAddress, _, err := FindConfigAddress(programId)
	if err != nil {
		return
	}
	recordAddress, _, err := FindRecordAddress(programId, sealHash)
	if err != nil {
		return
	}
	mintAuthorityAddress, _, err := FindMintAuthorityAddress(programId, sealHash)
	if err != nil {
		return
	}

	var data bytes.Buffer
	data.Write(anchorDiscriminator("mint_reborn"))
	data.Write(sealHash[:])
	writeString(&data, name)
	writeString(&data, uri)

	out = solana.NewInstruction(programId, solana.AccountMetaSlice{
		solana.Meta(configAddress),
		solana.Meta(recordAddress).WRITE(),
		solana.Meta(mintAuthorityAddress),
		solana.Meta(asset).WRITE().SIGNER(),
		solana.Meta(recipient),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(mplCoreProgramId),
		solana.Meta(feeRecipient).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, data.Bytes())
	return
}

// Offsets header of the native ed25519 program, one signature per
// instruction. Layout follows the Solana SDK: 1 byte count, 1 byte padding,
// then seven u16 little-endian offsets.
const (
	ed25519DataStart = 16

	ed25519PublicKeyOffset = ed25519DataStart
	ed25519SignatureOffset = ed25519PublicKeyOffset + ed25519.PublicKeySize
	ed25519MessageOffset   = ed25519SignatureOffset + ed25519.SignatureSize

	// Offset fields set to u16 max refer to the current instruction
	ed25519SelfReferential = uint16(0xffff)
)

// NewEd25519VerificationInstruction wraps a detached ed25519 signature for
// the native verification program. The reincarnation program requires this
// instruction at index 0 of the verify transaction.
func NewEd25519VerificationInstruction(publicKey []byte, signature []byte, message []byte) (out solana.Instruction, err error) {
	if len(publicKey) != ed25519.PublicKeySize {
		err = fmt.Errorf("invalid ed25519 public key length: %d", len(publicKey))
		return
	}
	if len(signature) != ed25519.SignatureSize {
		err = fmt.Errorf("invalid ed25519 signature length: %d", len(signature))
		return
	}

	var data bytes.Buffer
	data.WriteByte(1)
	data.WriteByte(0)

	offsets := []uint16{
		ed25519SignatureOffset,
		ed25519SelfReferential,
		ed25519PublicKeyOffset,
		ed25519SelfReferential,
		ed25519MessageOffset,
		uint16(len(message)),
		ed25519SelfReferential,
	}
	for _, offset := range offsets {
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], offset)
		data.Write(buf[:])
	}

	data.Write(publicKey)
	data.Write(signature)
	data.Write(message)

	out = solana.NewInstruction(ed25519ProgramId, solana.AccountMetaSlice{}, data.Bytes())
	return
}
