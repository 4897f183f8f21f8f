package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/gateway/response"
	"github.com/ika-tensei/relayer/src/utils/model"
)

func (self *Server) onGetSeal(c *gin.Context) {
	seal, err := self.seals.GetSeal(c.Request.Context(), c.Param("hash"))
	if err != nil {
		self.Log.WithError(err).Error("Failed to look up seal")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if seal == nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, response.SealToResponse(seal))
}

// Puts a failed seal back in the queue. The orchestrator picks up where the
// persisted artifacts left off.
func (self *Server) onRetrySeal(c *gin.Context) {
	hash := c.Param("hash")

	seal, err := self.seals.GetSeal(c.Request.Context(), hash)
	if err != nil {
		self.Log.WithError(err).Error("Failed to look up seal")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if seal == nil {
		c.Status(http.StatusNotFound)
		return
	}
	if seal.Status != model.SealStatusFailed {
		self.monitor.GetReport().Gateway.Errors.BadRequests.Inc()
		c.JSON(http.StatusConflict, gin.H{"error": "only failed seals can be retried"})
		return
	}

	if !self.retrier.Retry(hash) {
		c.JSON(http.StatusConflict, gin.H{"error": "seal is already queued"})
		return
	}

	self.Log.WithField("seal_hash", hash).Info("Seal retry requested")
	c.Status(http.StatusAccepted)
}
