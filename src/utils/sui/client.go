package sui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ika-tensei/relayer/src/utils/build_info"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client speaks JSON-RPC to a Sui fullnode over HTTP. Event subscriptions go
// through the websocket task instead, this client covers the polled reads.
type Client struct {
	client *resty.Client
	config *config.Config
	log    *logrus.Entry
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("sui-client")

	self.client =
		resty.New().
			SetBaseURL(config.Sui.RpcUrl).
			SetTimeout(config.Sui.RequestTimeout).
			SetHeader("User-Agent", "ika-tensei/relayer/"+build_info.Version).
			SetHeader("Content-Type", "application/json")

	return
}

func (self *Client) call(ctx context.Context, method string, params []any, out any) (err error) {
	var response rpcResponse

	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JsonRpc: "2.0",
			Id:      1,
			Method:  method,
			Params:  params,
		}).
		SetResult(&response).
		Post("")
	if err != nil {
		return
	}
	if !resp.IsSuccess() {
		err = fmt.Errorf("unexpected status: %s", resp.Status())
		return
	}
	if response.Error != nil {
		err = response.Error
		return
	}
	if out == nil {
		return
	}

	return json.Unmarshal(response.Result, out)
}

// GetOwnedObjects pages through the objects owned by an address. An empty
// cursor starts from the beginning.
func (self *Client) GetOwnedObjects(ctx context.Context, owner string, cursor string, limit int) (out *ObjectsPage, err error) {
	query := map[string]any{
		"options": map[string]any{
			"showType":                true,
			"showContent":             true,
			"showPreviousTransaction": true,
		},
	}

	var after any
	if cursor != "" {
		after = cursor
	}

	out = new(ObjectsPage)
	err = self.call(ctx, "suix_getOwnedObjects", []any{owner, query, after, limit}, out)
	if err != nil {
		out = nil
	}
	return
}

// GetObject fetches one object with its content, nil when deleted or unknown
func (self *Client) GetObject(ctx context.Context, objectId string) (out *ObjectData, err error) {
	var entry ObjectEntry
	err = self.call(ctx, "sui_getObject", []any{
		objectId,
		map[string]any{"showType": true, "showContent": true},
	}, &entry)
	if err != nil {
		return
	}

	out = entry.Data
	return
}
