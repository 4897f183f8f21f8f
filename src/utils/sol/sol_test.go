package sol

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSolTestSuite(t *testing.T) {
	suite.Run(t, new(SolTestSuite))
}

type SolTestSuite struct {
	suite.Suite
	programId solana.PublicKey
}

func (s *SolTestSuite) SetupSuite() {
	s.programId = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
}

func (s *SolTestSuite) TestPdaDerivationIsStable() {
	var sealHash [32]byte
	sealHash[0] = 0x01

	first, bump, err := FindRecordAddress(s.programId, sealHash)
	require.Nil(s.T(), err)

	second, secondBump, err := FindRecordAddress(s.programId, sealHash)
	require.Nil(s.T(), err)
	require.Equal(s.T(), first, second)
	require.Equal(s.T(), bump, secondBump)

	// A different seal gets a different record account
	sealHash[0] = 0x02
	other, _, err := FindRecordAddress(s.programId, sealHash)
	require.Nil(s.T(), err)
	require.NotEqual(s.T(), first, other)
}

func (s *SolTestSuite) TestCollectionAddressBindsChainAndContract() {
	contract := []byte("0xcontract")

	base, _, err := FindCollectionAddress(s.programId, 1, contract)
	require.Nil(s.T(), err)

	otherChain, _, err := FindCollectionAddress(s.programId, 2, contract)
	require.Nil(s.T(), err)
	require.NotEqual(s.T(), base, otherChain)

	otherContract, _, err := FindCollectionAddress(s.programId, 1, []byte("0xother"))
	require.Nil(s.T(), err)
	require.NotEqual(s.T(), base, otherContract)
}

func (s *SolTestSuite) TestVerifySealInstructionLayout() {
	var sealHash, attestation [32]byte
	sealHash[0] = 0xaa
	attestation[0] = 0xbb
	recipient := solana.MustPublicKeyFromBase58("11111111111111111111111111111112")
	payer := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	contract := []byte("0xcontract")
	tokenId := []byte("42")

	instruction, err := NewVerifySealInstruction(
		s.programId, sealHash, 1, contract, tokenId, attestation, recipient, payer)
	require.Nil(s.T(), err)
	require.Equal(s.T(), s.programId, instruction.ProgramID())

	data, err := instruction.Data()
	require.Nil(s.T(), err)

	// Anchor method discriminator leads the data
	discriminator := sha256.Sum256([]byte("global:verify_seal"))
	require.Equal(s.T(), discriminator[:8], data[:8])

	// Seal hash, then the little-endian chain id
	require.Equal(s.T(), sealHash[:], data[8:40])
	require.Equal(s.T(), uint16(1), binary.LittleEndian.Uint16(data[40:42]))

	// Contract travels borsh encoded, length prefix first
	require.Equal(s.T(), uint32(len(contract)), binary.LittleEndian.Uint32(data[42:46]))
	require.Equal(s.T(), contract, data[46:46+len(contract)])

	// Payer signs and pays, the record account gets written
	accounts := instruction.Accounts()
	require.Len(s.T(), accounts, 7)
	require.False(s.T(), accounts[0].IsWritable)
	require.True(s.T(), accounts[2].IsWritable)
	require.True(s.T(), accounts[3].IsSigner)
	require.Equal(s.T(), payer, accounts[3].PublicKey)
	require.Equal(s.T(), solana.SystemProgramID, accounts[6].PublicKey)
}

func (s *SolTestSuite) TestEd25519VerificationInstruction() {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	require.Nil(s.T(), err)

	message := bytes.Repeat([]byte{0x5a}, 32)
	signature := ed25519.Sign(privateKey, message)

	instruction, err := NewEd25519VerificationInstruction(publicKey, signature, message)
	require.Nil(s.T(), err)
	require.Equal(s.T(), ed25519ProgramId, instruction.ProgramID())
	require.Empty(s.T(), instruction.Accounts())

	data, err := instruction.Data()
	require.Nil(s.T(), err)

	// One signature, no padding
	require.Equal(s.T(), byte(1), data[0])
	require.Equal(s.T(), byte(0), data[1])

	// The native program must find the fields where the offsets point
	require.Equal(s.T(), []byte(publicKey), data[ed25519PublicKeyOffset:ed25519PublicKeyOffset+32])
	require.Equal(s.T(), signature, data[ed25519SignatureOffset:ed25519SignatureOffset+64])
	require.Equal(s.T(), message, data[ed25519MessageOffset:])

	require.True(s.T(), ed25519.Verify(
		data[ed25519PublicKeyOffset:ed25519PublicKeyOffset+32],
		data[ed25519MessageOffset:],
		data[ed25519SignatureOffset:ed25519SignatureOffset+64]))
}

func (s *SolTestSuite) TestEd25519InstructionRejectsBadLengths() {
	_, err := NewEd25519VerificationInstruction(make([]byte, 31), make([]byte, 64), []byte("m"))
	require.NotNil(s.T(), err)

	_, err = NewEd25519VerificationInstruction(make([]byte, 32), make([]byte, 63), []byte("m"))
	require.NotNil(s.T(), err)
}

func (s *SolTestSuite) TestParseReincarnationRecord() {
	recipient := solana.MustPublicKeyFromBase58("11111111111111111111111111111112")
	mint := solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")

	var data bytes.Buffer
	discriminator := sha256.Sum256([]byte("account:ReincarnationRecord"))
	data.Write(discriminator[:8])

	var sealHash [32]byte
	sealHash[31] = 0x07
	data.Write(sealHash[:])

	writeU16(&data, 4)
	writeVec(&data, []byte("near-contract"))
	writeVec(&data, []byte("sword-7"))

	var attestation [32]byte
	attestation[0] = 0xcc
	data.Write(attestation[:])

	data.Write(recipient.Bytes())
	data.Write(mint.Bytes())
	data.WriteByte(1)
	writeU64(&data, uint64(1700000000))
	data.WriteByte(255)

	record, err := ParseReincarnationRecord(data.Bytes())
	require.Nil(s.T(), err)
	require.Equal(s.T(), sealHash, record.SealHash)
	require.Equal(s.T(), uint16(4), record.SourceChain)
	require.Equal(s.T(), []byte("near-contract"), record.SourceContract)
	require.Equal(s.T(), []byte("sword-7"), record.TokenId)
	require.Equal(s.T(), attestation, record.AttestationPubkey)
	require.Equal(s.T(), recipient, record.Recipient)
	require.Equal(s.T(), mint, record.Mint)
	require.True(s.T(), record.Minted)
	require.Equal(s.T(), int64(1700000000), record.VerifiedAt)
	require.Equal(s.T(), uint8(255), record.Bump)
}

func (s *SolTestSuite) TestParseRejectsWrongDiscriminator() {
	data := make([]byte, 100)
	_, err := ParseReincarnationRecord(data)
	require.NotNil(s.T(), err)

	_, err = ParseProtocolConfig([]byte{0x01})
	require.NotNil(s.T(), err)
}

func (s *SolTestSuite) TestParseRejectsTruncatedRecord() {
	var data bytes.Buffer
	discriminator := sha256.Sum256([]byte("account:ReincarnationRecord"))
	data.Write(discriminator[:8])
	data.Write(make([]byte, 10))

	_, err := ParseReincarnationRecord(data.Bytes())
	require.NotNil(s.T(), err)
}

func (s *SolTestSuite) TestParseRejectsOversizedVec() {
	var data bytes.Buffer
	discriminator := sha256.Sum256([]byte("account:ReincarnationRecord"))
	data.Write(discriminator[:8])
	data.Write(make([]byte, 32))
	writeU16(&data, 1)

	// Length prefix claims more bytes than the account holds
	writeU32(&data, 1<<30)

	_, err := ParseReincarnationRecord(data.Bytes())
	require.NotNil(s.T(), err)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var out [2]byte
	binary.LittleEndian.PutUint16(out[:], v)
	buf.Write(out[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	buf.Write(out[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], v)
	buf.Write(out[:])
}

func writeVec(buf *bytes.Buffer, data []byte) {
	writeU32(buf, uint32(len(data)))
	buf.Write(data)
}
