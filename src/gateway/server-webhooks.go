package gateway

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/detect"
	"github.com/ika-tensei/relayer/src/gateway/request"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/lestrrat-go/jwx/jwt"
)

// Webhook intake complements the pollers, a delivered transfer shows up
// without waiting for the next polling round. Deliveries are best effort
// and unauthenticated senders are dropped, the pollers remain the source
// of record.
func (self *Server) onWebhook(c *gin.Context) {
	if !self.verifyWebhook(c) {
		self.monitor.GetReport().Gateway.Errors.WebhookAuthFailures.Inc()
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	self.monitor.GetReport().Gateway.State.WebhooksReceived.Inc()

	var accepted int
	var err error
	switch c.Param("provider") {
	case "alchemy":
		accepted, err = self.handleEvmActivity(c)
	case "helius":
		accepted, err = self.handleSolanaTransactions(c)
	default:
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

func (self *Server) verifyWebhook(c *gin.Context) bool {
	if self.jwks == nil {
		return true
	}

	keyset, err := self.jwks.Fetch(self.Ctx, self.Config.Gateway.WebhookJwksUrl)
	if err != nil {
		self.Log.WithError(err).Error("Failed to fetch webhook JWKS")
		return false
	}

	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return false
	}

	options := []jwt.ParseOption{jwt.WithKeySet(keyset), jwt.WithValidate(true)}
	if self.Config.Gateway.WebhookIssuer != "" {
		options = append(options, jwt.WithIssuer(self.Config.Gateway.WebhookIssuer))
	}

	_, err = jwt.ParseString(raw, options...)
	return err == nil
}

func (self *Server) handleEvmActivity(c *gin.Context) (accepted int, err error) {
	var in request.EvmActivity
	if err = c.ShouldBindJSON(&in); err != nil {
		return 0, errors.New("malformed activity payload")
	}

	for _, entry := range in.Event.Activity {
		if entry.Category != "erc721" || entry.Erc721TokenId == "" {
			continue
		}

		wallet := self.sink.Lookup(tensei.ChainEthereum, entry.ToAddress)
		if wallet == nil {
			continue
		}

		// Token ids arrive hex encoded, stored as decimal like the poller
		// writes them
		tokenId, ok := new(big.Int).SetString(strings.TrimPrefix(entry.Erc721TokenId, "0x"), 16)
		if !ok {
			continue
		}
		blockHeight, _ := strconv.ParseUint(strings.TrimPrefix(entry.BlockNum, "0x"), 16, 64)

		self.sink.Submit(&detect.DepositPayload{
			Chain:          tensei.ChainEthereum,
			WalletId:       wallet.Id,
			DepositAddress: wallet.DepositAddress,
			Contract:       entry.RawContract.Address,
			TokenId:        tokenId.String(),
			TxHash:         entry.Hash,
			BlockHeight:    blockHeight,
			Sender:         entry.FromAddress,
			Metadata: &model.DepositMetadata{
				Version:  1,
				Standard: "erc721",
				Source:   "webhook",
			},
		})
		accepted++
	}
	return
}

func (self *Server) handleSolanaTransactions(c *gin.Context) (accepted int, err error) {
	var in []request.SolanaTransaction
	if err = c.ShouldBindJSON(&in); err != nil {
		return 0, errors.New("malformed transaction payload")
	}

	for _, tx := range in {
		for _, transfer := range tx.TokenTransfers {
			// Only whole NFT transfers, fungible movements are irrelevant
			if transfer.TokenStandard != "NonFungible" || transfer.TokenAmount != 1 {
				continue
			}

			wallet := self.sink.Lookup(tensei.ChainSolana, transfer.ToUserAccount)
			if wallet == nil {
				continue
			}

			sender := transfer.FromUserAccount
			if sender == "" {
				sender = tx.FeePayer
			}

			self.sink.Submit(&detect.DepositPayload{
				Chain:          tensei.ChainSolana,
				WalletId:       wallet.Id,
				DepositAddress: wallet.DepositAddress,
				Contract:       transfer.Mint,
				TokenId:        transfer.Mint,
				TxHash:         tx.Signature,
				BlockHeight:    tx.Slot,
				Sender:         sender,
				Metadata: &model.DepositMetadata{
					Version:  1,
					Standard: "spl-token",
					Source:   "webhook",
				},
			})
			accepted++
		}
	}
	return
}
