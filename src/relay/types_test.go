package relay

import (
	"encoding/json"
	"testing"

	"github.com/hamba/avro"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTypesTestSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

type TypesTestSuite struct {
	suite.Suite
}

func (s *TypesTestSuite) TestNewSealFromEvent() {
	event := &SealEvent{
		SealHash:      "deadbeef",
		SourceChain:   tensei.ChainEthereum,
		Contract:      "0xcontract",
		TokenId:       "42",
		Nonce:         0,
		Recipient:     "recipient",
		Name:          "Lost Samurai #42",
		MediaUri:      "ipfs://QmXyz",
		Collection:    "Lost Samurai",
		DwalletId:     "dw-1",
		DwalletCapId:  "cap-1",
		CustodyPubkey: "0xkey",
	}

	seal := NewSeal(event)

	require.Equal(s.T(), model.SealStatusSealed, seal.Status)
	require.Equal(s.T(), "deadbeef", seal.SealHash)
	require.Equal(s.T(), uint16(tensei.ChainEthereum), seal.SourceChain)
	require.Equal(s.T(), uint16(tensei.ChainSolana), seal.DestChain)
	require.Equal(s.T(), "0xcontract", seal.SourceContract)
	require.Equal(s.T(), "dw-1", seal.DwalletId)
	require.Equal(s.T(), "Lost Samurai #42", seal.Name)
	require.False(s.T(), seal.CreatedAt.IsZero())
	require.Equal(s.T(), seal.CreatedAt, seal.UpdatedAt)
}

func (s *TypesTestSuite) TestSealStatusEventAvro() {
	event := &SealStatusEvent{
		SealHash:         "deadbeef",
		Status:           "completed",
		SourceChain:      int(tensei.ChainSui),
		DestAssetAddress: "AssetPubkey",
		Timestamp:        1700000000000,
	}

	data, err := event.MarshalBinary()
	require.Nil(s.T(), err)
	require.NotEmpty(s.T(), data)

	parsed := new(SealStatusEvent)
	err = avro.Unmarshal(sealStatusEventSchema, data, parsed)
	require.Nil(s.T(), err)
	require.Equal(s.T(), event, parsed)
}

func (s *TypesTestSuite) TestSealStatusEventJSON() {
	event := &SealStatusEvent{
		SealHash: "deadbeef",
		Status:   "failed",
		Error:    "retry budget exhausted",
	}

	data, err := json.Marshal(event)
	require.Nil(s.T(), err)

	var out map[string]any
	require.Nil(s.T(), json.Unmarshal(data, &out))
	require.Equal(s.T(), "deadbeef", out["seal_hash"])
	require.Equal(s.T(), "failed", out["status"])
	require.Equal(s.T(), "retry budget exhausted", out["error"])
}
