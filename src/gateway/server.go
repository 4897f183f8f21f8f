package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ika-tensei/relayer/src/detect"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/model"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"github.com/lestrrat-go/jwx/jwk"
)

// Narrow views of the relay components the gateway calls into

type WalletPool interface {
	Assign(ctx context.Context, chain tensei.Chain, requester string) (*model.CustodyWallet, error)
}

type SealReader interface {
	GetSeal(ctx context.Context, sealHash string) (*model.Seal, error)
}

type SealRetrier interface {
	Retry(sealHash string) bool
}

type DepositSink interface {
	Lookup(chain tensei.Chain, address string) *model.CustodyWallet
	Submit(payload *detect.DepositPayload)
}

// Public REST server. Assigns deposit addresses, serves seal status and
// takes webhook deliveries from block explorer providers.
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor monitoring.Monitor
	pool    WalletPool
	seals   SealReader
	retrier SealRetrier
	sink    DepositSink

	// Auto-refreshing key set for webhook JWT verification
	jwks *jwk.AutoRefresh
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithOnBeforeStart(self.setupJwks).
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if config.IsDevelopment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	v1 := self.Router.Group("v1")
	{
		v1.POST("deposit-addresses", self.onAssignDepositAddress)
		v1.GET("seals/:hash", self.onGetSeal)
		v1.POST("seals/:hash/retry", self.requireOperator, self.onRetrySeal)
		v1.POST("webhooks/:provider", self.onWebhook)
	}

	self.httpServer = &http.Server{
		Addr:    config.Gateway.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) WithPool(pool WalletPool) *Server {
	self.pool = pool
	return self
}

func (self *Server) WithSeals(seals SealReader) *Server {
	self.seals = seals
	return self
}

func (self *Server) WithRetrier(retrier SealRetrier) *Server {
	self.retrier = retrier
	return self
}

func (self *Server) WithDepositSink(sink DepositSink) *Server {
	self.sink = sink
	return self
}

func (self *Server) setupJwks() (err error) {
	if self.Config.Gateway.WebhookJwksUrl == "" {
		return nil
	}

	self.jwks = jwk.NewAutoRefresh(self.Ctx)
	self.jwks.Configure(self.Config.Gateway.WebhookJwksUrl,
		jwk.WithMinRefreshInterval(15*time.Minute))

	// Fail fast on an unreachable key set, webhooks would all get rejected
	_, err = self.jwks.Refresh(self.Ctx, self.Config.Gateway.WebhookJwksUrl)
	if err != nil {
		self.Log.WithError(err).Error("Failed to fetch webhook JWKS")
	}
	return err
}

func (self *Server) run() (err error) {
	self.Log.WithField("addr", self.Config.Gateway.RESTListenAddress).
		Info("Gateway listening")

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start gateway server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown gateway server")
		return
	}
}

// Operator routes are off unless a token is configured
func (self *Server) requireOperator(c *gin.Context) {
	token := self.Config.Gateway.OperatorToken
	if token == "" || c.GetHeader("Authorization") != "Bearer "+token {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}
