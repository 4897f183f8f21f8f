package tensei

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/ika-tensei/relayer/src/utils/model"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTenseiTestSuite(t *testing.T) {
	suite.Run(t, new(TenseiTestSuite))
}

type TenseiTestSuite struct {
	suite.Suite
}

func (s *TenseiTestSuite) TestSealHashLayout() {
	contract := []byte("0x1234567890abcdef1234567890abcdef12345678")
	tokenId := []byte("42")

	got := SealHash(ChainEthereum, contract, tokenId, 7)

	// Recompute from the layout definition
	h := sha256.New()
	var chainBytes [2]byte
	binary.BigEndian.PutUint16(chainBytes[:], uint16(ChainEthereum))
	h.Write(chainBytes[:])
	contractHash := sha256.Sum256(contract)
	h.Write(contractHash[:])
	tokenIdHash := sha256.Sum256(tokenId)
	h.Write(tokenIdHash[:])
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], 7)
	h.Write(nonceBytes[:])

	var want [32]byte
	copy(want[:], h.Sum(nil))

	require.Equal(s.T(), want, got)
	require.Equal(s.T(), got, SealHash(ChainEthereum, contract, tokenId, 7))
}

func (s *TenseiTestSuite) TestSealHashDistinguishesEveryField() {
	base := SealHash(ChainEthereum, []byte("contract"), []byte("1"), 0)

	variants := [][32]byte{
		SealHash(ChainSolana, []byte("contract"), []byte("1"), 0),
		SealHash(ChainEthereum, []byte("other"), []byte("1"), 0),
		SealHash(ChainEthereum, []byte("contract"), []byte("2"), 0),
		SealHash(ChainEthereum, []byte("contract"), []byte("1"), 1),
	}
	for _, variant := range variants {
		require.NotEqual(s.T(), base, variant)
	}
}

func (s *TenseiTestSuite) TestChainNames() {
	for _, chain := range []Chain{ChainEthereum, ChainSui, ChainSolana, ChainNear, ChainBitcoin} {
		parsed, err := ChainFromName(chain.String())
		require.Nil(s.T(), err)
		require.Equal(s.T(), chain, parsed)
	}

	_, err := ChainFromName("dogecoin")
	require.NotNil(s.T(), err)
}

func (s *TenseiTestSuite) TestChainCurves() {
	require.Equal(s.T(), model.CurveSecp256k1, ChainEthereum.Curve())
	require.Equal(s.T(), model.CurveSecp256k1, ChainBitcoin.Curve())
	require.Equal(s.T(), model.CurveEd25519, ChainSui.Curve())
	require.Equal(s.T(), model.CurveEd25519, ChainSolana.Curve())
	require.Equal(s.T(), model.CurveEd25519, ChainNear.Curve())
}

func (s *TenseiTestSuite) TestChainFromPayloadId() {
	chain, err := ChainFromPayloadId(uint16(ChainEthereum))
	require.Nil(s.T(), err)
	require.Equal(s.T(), ChainEthereum, chain)

	// Wormhole numbering gets translated
	chain, err = ChainFromPayloadId(WormholeChainSui)
	require.Nil(s.T(), err)
	require.Equal(s.T(), ChainSui, chain)

	chain, err = ChainFromPayloadId(WormholeChainNear)
	require.Nil(s.T(), err)
	require.Equal(s.T(), ChainNear, chain)

	_, err = ChainFromPayloadId(999)
	require.NotNil(s.T(), err)
}

func (s *TenseiTestSuite) TestValidateAssetFields() {
	require.Nil(s.T(), ValidateAssetFields("Lost Samurai #42", "ipfs://QmXyz", "0xabc", "42"))

	err := ValidateAssetFields(strings.Repeat("n", MaxNameLength+1), "uri", "contract", "1")
	require.NotNil(s.T(), err)

	err = ValidateAssetFields("name", strings.Repeat("u", MaxUriLength+1), "contract", "1")
	require.NotNil(s.T(), err)

	err = ValidateAssetFields("name", "uri", strings.Repeat("c", MaxContractLength+1), "1")
	require.NotNil(s.T(), err)

	err = ValidateAssetFields("name", "uri", "contract", strings.Repeat("t", MaxTokenIdLength+1))
	require.NotNil(s.T(), err)
}

func (s *TenseiTestSuite) TestSealPayloadRoundTrip() {
	var custody, receiver [32]byte
	custody[0] = 0xaa
	receiver[31] = 0xbb

	payload := NewSealPayload(ChainNear, []byte("museum.near"), []byte("sword-7"), custody, receiver, "ipfs://QmSword")

	data := payload.Bytes()
	require.Equal(s.T(), byte(PayloadTypeSeal), data[0])
	require.Len(s.T(), data, MinSealPayloadLength+len("ipfs://QmSword"))

	parsed, err := ParseSealPayload(data)
	require.Nil(s.T(), err)
	require.Equal(s.T(), payload.SourceChain, parsed.SourceChain)
	require.Equal(s.T(), payload.ContractHash, parsed.ContractHash)
	require.Equal(s.T(), payload.TokenIdHash, parsed.TokenIdHash)
	require.Equal(s.T(), payload.CustodyPubkey, parsed.CustodyPubkey)
	require.Equal(s.T(), payload.Receiver, parsed.Receiver)
	require.Equal(s.T(), "ipfs://QmSword", parsed.TokenUri)
}

func (s *TenseiTestSuite) TestParseSealPayloadRejectsGarbage() {
	_, err := ParseSealPayload([]byte{0x01, 0x02})
	require.NotNil(s.T(), err)

	data := NewSealPayload(ChainSui, []byte("c"), []byte("t"), [32]byte{}, [32]byte{}, "").Bytes()
	data[0] = 0x7f
	_, err = ParseSealPayload(data)
	require.NotNil(s.T(), err)
}
