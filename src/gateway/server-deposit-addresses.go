package gateway

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/gateway/request"
	"github.com/ika-tensei/relayer/src/gateway/response"
	"github.com/ika-tensei/relayer/src/utils/errs"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/rs/xid"
)

// One call claims one single-use custody wallet. The recipient is the
// destination chain address the reborn asset will be minted to.
func (self *Server) onAssignDepositAddress(c *gin.Context) {
	var in request.AssignAddress
	if err := c.ShouldBindJSON(&in); err != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "chain and recipient are required"})
		return
	}

	chain, err := tensei.ChainFromName(in.Chain)
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err = solana.PublicKeyFromBase58(in.Recipient); err != nil {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is not a valid destination chain address"})
		return
	}

	requestId := xid.New().String()

	ctx, cancel := context.WithTimeout(c.Request.Context(), self.Config.Gateway.AssignTimeout)
	defer cancel()

	wallet, err := self.pool.Assign(ctx, chain, in.Recipient)
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.AssignFailures.Inc()
		self.Log.WithError(err).
			WithField("request_id", requestId).
			WithField("chain", chain.String()).
			Error("Failed to assign deposit address")

		if errs.IsRecoverable(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no custody wallet available, retry later"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assignment failed"})
		}
		return
	}

	self.monitor.GetReport().Gateway.State.AddressesAssigned.Inc()
	self.Log.WithField("request_id", requestId).
		WithField("chain", chain.String()).
		WithField("wallet_id", wallet.Id).
		Info("Deposit address assigned")

	c.JSON(http.StatusOK, response.AssignedWalletToResponse(requestId, wallet))
}
