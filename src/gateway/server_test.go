package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/detect"
	"github.com/ika-tensei/relayer/src/gateway/response"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/model"
	monitor_relayer "github.com/ika-tensei/relayer/src/utils/monitoring/relayer"
	"github.com/ika-tensei/relayer/src/utils/tensei"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// System program id, any valid base58 pubkey works as a recipient
const testRecipient = "11111111111111111111111111111111"

type fakePool struct {
	wallet *model.CustodyWallet
	err    error

	chain     tensei.Chain
	requester string
}

func (self *fakePool) Assign(ctx context.Context, chain tensei.Chain, requester string) (*model.CustodyWallet, error) {
	self.chain = chain
	self.requester = requester
	if self.err != nil {
		return nil, self.err
	}
	return self.wallet, nil
}

type fakeSeals struct {
	seal *model.Seal
	err  error
}

func (self *fakeSeals) GetSeal(ctx context.Context, sealHash string) (*model.Seal, error) {
	return self.seal, self.err
}

type fakeRetrier struct {
	accepted bool
	hash     string
}

func (self *fakeRetrier) Retry(sealHash string) bool {
	self.hash = sealHash
	return self.accepted
}

type fakeSink struct {
	wallets  map[string]*model.CustodyWallet
	payloads []*detect.DepositPayload
}

func (self *fakeSink) Lookup(chain tensei.Chain, address string) *model.CustodyWallet {
	return self.wallets[address]
}

func (self *fakeSink) Submit(payload *detect.DepositPayload) {
	self.payloads = append(self.payloads, payload)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	config  *config.Config
	server  *Server
	pool    *fakePool
	seals   *fakeSeals
	retrier *fakeRetrier
	sink    *fakeSink
}

func (s *ServerTestSuite) SetupSuite() {
	s.config = config.Default()
	s.config.Gateway.OperatorToken = "operator-secret"
}

func (s *ServerTestSuite) SetupTest() {
	s.pool = new(fakePool)
	s.seals = new(fakeSeals)
	s.retrier = new(fakeRetrier)
	s.sink = &fakeSink{wallets: make(map[string]*model.CustodyWallet)}

	s.server = NewServer(s.config).
		WithMonitor(monitor_relayer.NewMonitor().WithMaxHistorySize(1)).
		WithPool(s.pool).
		WithSeals(s.seals).
		WithRetrier(s.retrier).
		WithDepositSink(s.sink)
}

func (s *ServerTestSuite) do(method string, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	w := httptest.NewRecorder()
	s.server.Router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) TestAssignDepositAddress() {
	s.pool.wallet = &model.CustodyWallet{
		Id:             7,
		Chain:          "ethereum",
		Curve:          model.CurveSecp256k1,
		DepositAddress: "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
		PublicKey:      "0x0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
	}

	w := s.do("POST", "/v1/deposit-addresses",
		gin.H{"chain": "ethereum", "recipient": testRecipient}, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var out response.AssignAddress
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(s.T(), "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", out.DepositAddress)
	require.Equal(s.T(), "secp256k1", out.Curve)
	require.NotEmpty(s.T(), out.RequestId)

	require.Equal(s.T(), tensei.ChainEthereum, s.pool.chain)
	require.Equal(s.T(), testRecipient, s.pool.requester)
}

func (s *ServerTestSuite) TestAssignRejectsMissingFields() {
	w := s.do("POST", "/v1/deposit-addresses", gin.H{"chain": "ethereum"}, nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestAssignRejectsUnknownChain() {
	w := s.do("POST", "/v1/deposit-addresses",
		gin.H{"chain": "dogecoin", "recipient": testRecipient}, nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestAssignRejectsBadRecipient() {
	w := s.do("POST", "/v1/deposit-addresses",
		gin.H{"chain": "ethereum", "recipient": "not-a-pubkey"}, nil)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestAssignPoolExhausted() {
	s.pool.err = errs.Recoverable(errors.New("custody pool exhausted"))

	w := s.do("POST", "/v1/deposit-addresses",
		gin.H{"chain": "ethereum", "recipient": testRecipient}, nil)
	require.Equal(s.T(), http.StatusServiceUnavailable, w.Code)
}

func (s *ServerTestSuite) TestAssignFailure() {
	s.pool.err = errors.New("database down")

	w := s.do("POST", "/v1/deposit-addresses",
		gin.H{"chain": "ethereum", "recipient": testRecipient}, nil)
	require.Equal(s.T(), http.StatusInternalServerError, w.Code)
}

func (s *ServerTestSuite) TestGetSealHidesCustodyInternals() {
	s.seals.seal = &model.Seal{
		SealHash:      "abc",
		Status:        model.SealStatusMinting,
		DwalletId:     "dw-1",
		CustodyPubkey: "0xdeadbeef",
		Recipient:     testRecipient,
	}

	w := s.do("GET", "/v1/seals/abc", nil, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var out map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(s.T(), "minting", out["status"])
	require.NotContains(s.T(), out, "dwallet_id")
	require.NotContains(s.T(), out, "custody_pubkey")
	require.NotContains(s.T(), out, "signature")
}

func (s *ServerTestSuite) TestGetSealNotFound() {
	w := s.do("GET", "/v1/seals/missing", nil, nil)
	require.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *ServerTestSuite) TestRetryNeedsOperatorToken() {
	s.seals.seal = &model.Seal{SealHash: "abc", Status: model.SealStatusFailed}

	w := s.do("POST", "/v1/seals/abc/retry", nil, nil)
	require.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.do("POST", "/v1/seals/abc/retry", nil,
		map[string]string{"Authorization": "Bearer wrong"})
	require.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *ServerTestSuite) TestRetryFailedSeal() {
	s.seals.seal = &model.Seal{SealHash: "abc", Status: model.SealStatusFailed}
	s.retrier.accepted = true

	w := s.do("POST", "/v1/seals/abc/retry", nil,
		map[string]string{"Authorization": "Bearer operator-secret"})
	require.Equal(s.T(), http.StatusAccepted, w.Code)
	require.Equal(s.T(), "abc", s.retrier.hash)
}

func (s *ServerTestSuite) TestRetryRefusesNonFailedSeal() {
	s.seals.seal = &model.Seal{SealHash: "abc", Status: model.SealStatusCompleted}

	w := s.do("POST", "/v1/seals/abc/retry", nil,
		map[string]string{"Authorization": "Bearer operator-secret"})
	require.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *ServerTestSuite) TestRetryAlreadyQueued() {
	s.seals.seal = &model.Seal{SealHash: "abc", Status: model.SealStatusFailed}
	s.retrier.accepted = false

	w := s.do("POST", "/v1/seals/abc/retry", nil,
		map[string]string{"Authorization": "Bearer operator-secret"})
	require.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *ServerTestSuite) TestWebhookUnknownProvider() {
	w := s.do("POST", "/v1/webhooks/etherscan", gin.H{}, nil)
	require.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *ServerTestSuite) TestWebhookEvmActivity() {
	s.sink.wallets["0xDEPOSIT"] = &model.CustodyWallet{
		Id:             3,
		DepositAddress: "0xDEPOSIT",
	}

	body := gin.H{
		"id":   "wh-1",
		"type": "NFT_ACTIVITY",
		"event": gin.H{
			"network": "ETH_MAINNET",
			"activity": []gin.H{
				{
					"fromAddress":   "0xSENDER",
					"toAddress":     "0xDEPOSIT",
					"blockNum":      "0x10d4f",
					"hash":          "0xTX",
					"category":      "erc721",
					"erc721TokenId": "0x2a",
					"rawContract":   gin.H{"address": "0xCONTRACT"},
				},
				// Not watched, dropped
				{
					"toAddress":     "0xELSEWHERE",
					"category":      "erc721",
					"erc721TokenId": "0x01",
				},
				// Not an NFT transfer, dropped
				{
					"toAddress": "0xDEPOSIT",
					"category":  "external",
				},
			},
		},
	}

	w := s.do("POST", "/v1/webhooks/alchemy", body, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var out map[string]int
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(s.T(), 1, out["accepted"])

	require.Len(s.T(), s.sink.payloads, 1)
	payload := s.sink.payloads[0]
	require.Equal(s.T(), tensei.ChainEthereum, payload.Chain)
	require.Equal(s.T(), int64(3), payload.WalletId)
	require.Equal(s.T(), "0xCONTRACT", payload.Contract)
	require.Equal(s.T(), "42", payload.TokenId)
	require.Equal(s.T(), uint64(0x10d4f), payload.BlockHeight)
	require.Equal(s.T(), "webhook", payload.Metadata.Source)
}

func (s *ServerTestSuite) TestWebhookSolanaTransactions() {
	s.sink.wallets["DepositPubkey"] = &model.CustodyWallet{
		Id:             4,
		DepositAddress: "DepositPubkey",
	}

	body := []gin.H{
		{
			"signature": "sig-1",
			"slot":      123,
			"type":      "TRANSFER",
			"feePayer":  "FeePayerPubkey",
			"tokenTransfers": []gin.H{
				{
					"fromUserAccount": "SenderPubkey",
					"toUserAccount":   "DepositPubkey",
					"mint":            "MintPubkey",
					"tokenAmount":     1,
					"tokenStandard":   "NonFungible",
				},
				// Fungible, dropped
				{
					"toUserAccount": "DepositPubkey",
					"mint":          "UsdcMint",
					"tokenAmount":   2.5,
					"tokenStandard": "Fungible",
				},
			},
		},
	}

	w := s.do("POST", "/v1/webhooks/helius", body, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var out map[string]int
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(s.T(), 1, out["accepted"])

	require.Len(s.T(), s.sink.payloads, 1)
	payload := s.sink.payloads[0]
	require.Equal(s.T(), tensei.ChainSolana, payload.Chain)
	require.Equal(s.T(), "MintPubkey", payload.Contract)
	require.Equal(s.T(), "MintPubkey", payload.TokenId)
	require.Equal(s.T(), "sig-1", payload.TxHash)
	require.Equal(s.T(), uint64(123), payload.BlockHeight)
	require.Equal(s.T(), "SenderPubkey", payload.Sender)
}
