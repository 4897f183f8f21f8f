package hook

import (
	"context"
	"fmt"

	"github.com/ika-tensei/relayer/src/utils/build_info"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client registers watched deposit addresses with an external webhook
// provider. Registration is best effort, the pollers stay authoritative.
type Client struct {
	client *resty.Client
	config *config.Config
	log    *logrus.Entry
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("hook-client")

	self.client =
		resty.New().
			SetBaseURL(config.Detector.WebhookProviderUrl).
			SetTimeout(config.Detector.WebhookRequestTimeout).
			SetHeader("User-Agent", "ika-tensei/relayer/"+build_info.Version)

	if config.Detector.WebhookProviderToken != "" {
		self.client.SetHeader("Authorization", "Bearer "+config.Detector.WebhookProviderToken)
	}

	return
}

// RegisterAddresses upserts the address watch list for one chain. The
// provider delivers activity to the configured callback URL.
func (self *Client) RegisterAddresses(ctx context.Context, chain string, addresses []string) (err error) {
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"callback_url": self.config.Detector.WebhookCallbackUrl,
			"chain":        chain,
			"addresses":    addresses,
		}).
		Post("/v1/webhooks")
	if err != nil {
		return
	}
	if !resp.IsSuccess() {
		err = fmt.Errorf("provider responded %s", resp.Status())
		return
	}

	self.log.WithField("chain", chain).WithField("addresses", len(addresses)).Debug("Watched addresses registered")
	return
}
