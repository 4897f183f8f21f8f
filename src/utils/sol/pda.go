package sol

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Seeds of the program derived addresses owned by the reincarnation program
const (
	configSeed            = "ika_config"
	collectionSeed        = "collection"
	recordSeed            = "reincarnation"
	mintAuthoritySeed     = "reincarnation_mint"
	onchainCollectionSeed = "onchain_collection"
)

func FindConfigAddress(programId solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(configSeed)}, programId)
}

// FindCollectionAddress derives the per-collection config account. The chain
// id is encoded little-endian, the contract address goes in raw.
func FindCollectionAddress(programId solana.PublicKey, sourceChain uint16, sourceContract []byte) (solana.PublicKey, uint8, error) {
	var chain [2]byte
	binary.LittleEndian.PutUint16(chain[:], sourceChain)

	return solana.FindProgramAddress([][]byte{
		[]byte(collectionSeed),
		chain[:],
		sourceContract,
	}, programId)
}

func FindRecordAddress(programId solana.PublicKey, sealHash [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(recordSeed),
		sealHash[:],
	}, programId)
}

// FindMintAuthorityAddress derives the PDA that signs Metaplex Core CPIs for
// one reincarnation. The seal hash is part of the seeds, each seal gets its
// own authority.
func FindMintAuthorityAddress(programId solana.PublicKey, sealHash [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(mintAuthoritySeed),
		sealHash[:],
	}, programId)
}

func FindOnchainCollectionAddress(programId solana.PublicKey, configAddress solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(onchainCollectionSeed),
		configAddress.Bytes(),
	}, programId)
}
