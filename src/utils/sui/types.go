package sui

import (
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RpcError       `json:"error"`
}

type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (self *RpcError) Error() string {
	return fmt.Sprintf("sui rpc error %d: %s", self.Code, self.Message)
}

// Page of suix_getOwnedObjects results
type ObjectsPage struct {
	Data        []ObjectEntry `json:"data"`
	NextCursor  *string       `json:"nextCursor"`
	HasNextPage bool          `json:"hasNextPage"`
}

type ObjectEntry struct {
	Data *ObjectData `json:"data"`
}

type ObjectData struct {
	ObjectId            string         `json:"objectId"`
	Version             string         `json:"version"`
	Type                string         `json:"type"`
	PreviousTransaction string         `json:"previousTransaction"`
	Content             *ObjectContent `json:"content"`
}

type ObjectContent struct {
	DataType string         `json:"dataType"`
	Type     string         `json:"type"`
	Fields   map[string]any `json:"fields"`
}

// Field helpers, object field values come through as strings or nested maps

func (self *ObjectData) Field(name string) (out string) {
	if self.Content == nil {
		return
	}
	value, ok := self.Content.Fields[name]
	if !ok {
		return
	}
	out, _ = value.(string)
	return
}

func (self *ObjectData) BoolField(name string) (out bool) {
	if self.Content == nil {
		return
	}
	value, ok := self.Content.Fields[name]
	if !ok {
		return
	}
	out, _ = value.(bool)
	return
}

// Event delivered over the suix_subscribeEvent websocket channel
type Event struct {
	Id                EventId         `json:"id"`
	PackageId         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJson        json.RawMessage `json:"parsedJson"`
	TimestampMs       string          `json:"timestampMs"`
}

type EventId struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Envelope of a websocket subscription notification
type SubscriptionMessage struct {
	JsonRpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Subscription int64           `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}
