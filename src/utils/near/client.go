package near

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ika-tensei/relayer/src/utils/build_info"
	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client runs view calls against a NEAR node. Deposits are found through the
// NEP-181 enumeration methods of the watched NFT contracts.
type Client struct {
	client *resty.Client
	config *config.Config
	log    *logrus.Entry
}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RpcError       `json:"error"`
}

type RpcError struct {
	Name  string          `json:"name"`
	Cause json.RawMessage `json:"cause"`
	Data  string          `json:"data"`
}

func (self *RpcError) Error() string {
	return fmt.Sprintf("near rpc error: %s", self.Name)
}

// Result bytes of a call_function query come back as a numeric array
type callFunctionResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	Error       string   `json:"error"`
}

type NftToken struct {
	TokenId  string       `json:"token_id"`
	OwnerId  string       `json:"owner_id"`
	Metadata *NftMetadata `json:"metadata"`
}

type NftMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Media       string `json:"media"`
	Reference   string `json:"reference"`
}

func NewClient(config *config.Config) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("near-client")

	self.client =
		resty.New().
			SetBaseURL(config.Near.RpcUrl).
			SetTimeout(config.Near.RequestTimeout).
			SetHeader("User-Agent", "ika-tensei/relayer/"+build_info.Version).
			SetHeader("Content-Type", "application/json")

	return
}

// CallFunction runs a view method and decodes its JSON return value into out
func (self *Client) CallFunction(ctx context.Context, accountId string, methodName string, args any, out any) (err error) {
	argsJson, err := json.Marshal(args)
	if err != nil {
		return
	}

	var response rpcResponse
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JsonRpc: "2.0",
			Id:      "relayer",
			Method:  "query",
			Params: map[string]any{
				"request_type": "call_function",
				"finality":     "final",
				"account_id":   accountId,
				"method_name":  methodName,
				"args_base64":  base64.StdEncoding.EncodeToString(argsJson),
			},
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

	var result callFunctionResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return
	}
	if result.Error != "" {
		err = fmt.Errorf("view call %s.%s failed: %s", accountId, methodName, result.Error)
		return
	}

	data := make([]byte, len(result.Result))
	for i, b := range result.Result {
		data[i] = byte(b)
	}

	if out == nil {
		return
	}
	return json.Unmarshal(data, out)
}

// NftTokensForOwner lists the tokens an account owns on one NFT contract
func (self *Client) NftTokensForOwner(ctx context.Context, contract string, owner string, limit int) (out []NftToken, err error) {
	err = self.CallFunction(ctx, contract, "nft_tokens_for_owner", map[string]any{
		"account_id": owner,
		"limit":      limit,
	}, &out)
	return
}

// NftToken fetches a single token, nil when it does not exist
func (self *Client) NftToken(ctx context.Context, contract string, tokenId string) (out *NftToken, err error) {
	err = self.CallFunction(ctx, contract, "nft_token", map[string]any{
		"token_id": tokenId,
	}, &out)
	return
}

// LatestBlockHeight reads the finalized head height from the node status
func (self *Client) LatestBlockHeight(ctx context.Context) (out uint64, err error) {
	var response rpcResponse
	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JsonRpc: "2.0",
			Id:      "relayer",
			Method:  "status",
			Params:  []any{},
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

	var result struct {
		SyncInfo struct {
			LatestBlockHeight uint64 `json:"latest_block_height"`
		} `json:"sync_info"`
	}
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return
	}

	out = result.SyncInfo.LatestBlockHeight
	return
}
