package relay

import (
	"encoding/json"
	"strconv"

	"github.com/ika-tensei/relayer/src/utils/config"
	"github.com/ika-tensei/relayer/src/utils/monitoring"
	"github.com/ika-tensei/relayer/src/utils/sui"
	"github.com/ika-tensei/relayer/src/utils/task"
	"github.com/ika-tensei/relayer/src/utils/tensei"
	"nhooyr.io/websocket"
)

// Move event fields emitted when a seal opens on the orchestration chain.
// Sui serializes u64 values as strings.
type sealOpenedEvent struct {
	SealHash       string `json:"seal_hash"`
	SourceChain    uint16 `json:"source_chain"`
	SourceContract string `json:"source_contract"`
	TokenId        string `json:"token_id"`
	Nonce          string `json:"nonce"`
	Recipient      string `json:"recipient"`
	MediaUri       string `json:"media_uri"`
	Collection     string `json:"collection"`
	DwalletId      string `json:"dwallet_id"`
	DwalletCapId   string `json:"dwallet_cap_id"`
	CustodyPubkey  string `json:"custody_pubkey"`
}

// EventSource subscribes to seal events on the orchestration chain and
// enqueues them. Complements deposit detection, a seal opened by a flow the
// detectors never saw still gets processed. Queue dedup absorbs the overlap
// with the deposit consumer.
type EventSource struct {
	*task.Websocket

	monitor monitoring.Monitor
	store   *Store
	queue   *Queue
}

func NewEventSource(config *config.Config) (self *EventSource) {
	self = new(EventSource)

	self.Websocket = task.NewWebsocket(config, "event-source").
		WithUrl(config.Sui.WsUrl).
		WithOnConnected(self.subscribe).
		WithOnMessage(self.onMessage)

	return
}

func (self *EventSource) WithMonitor(monitor monitoring.Monitor) *EventSource {
	self.monitor = monitor
	return self
}

func (self *EventSource) WithStore(store *Store) *EventSource {
	self.store = store
	return self
}

func (self *EventSource) WithQueue(queue *Queue) *EventSource {
	self.queue = queue
	return self
}

// Subscriptions don't survive reconnects, re-established on every connect
func (self *EventSource) subscribe(conn *websocket.Conn) (err error) {
	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "suix_subscribeEvent",
		"params": []any{
			map[string]any{"MoveEventType": self.Config.Sui.SealEventType},
		},
	}

	data, err := json.Marshal(request)
	if err != nil {
		return
	}

	self.Log.WithField("event_type", self.Config.Sui.SealEventType).
		Info("Subscribing to seal events")
	return conn.Write(self.Ctx, websocket.MessageText, data)
}

func (self *EventSource) onMessage(data []byte) (err error) {
	var message sui.SubscriptionMessage
	if err = json.Unmarshal(data, &message); err != nil {
		self.monitor.GetReport().Relayer.Errors.EventSourceFailures.Inc()
		self.Log.WithError(err).Warn("Unparseable websocket frame, skipping")
		return nil
	}

	// Subscription confirmations and other non-event frames
	if message.Method != "suix_subscribeEvent" || len(message.Params.Result) == 0 {
		return nil
	}

	var event sui.Event
	if err = json.Unmarshal(message.Params.Result, &event); err != nil {
		self.monitor.GetReport().Relayer.Errors.EventSourceFailures.Inc()
		self.Log.WithError(err).Warn("Unparseable event notification, skipping")
		return nil
	}

	self.handleEvent(&event)
	return nil
}

func (self *EventSource) handleEvent(event *sui.Event) {
	var parsed sealOpenedEvent
	if err := json.Unmarshal(event.ParsedJson, &parsed); err != nil {
		self.monitor.GetReport().Relayer.Errors.EventSourceFailures.Inc()
		self.Log.WithError(err).
			WithField("tx", event.Id.TxDigest).
			Warn("Malformed seal event, skipping")
		return
	}
	if parsed.SealHash == "" {
		return
	}

	nonce, _ := strconv.ParseUint(parsed.Nonce, 10, 64)
	sealEvent := &SealEvent{
		SealHash:      parsed.SealHash,
		SourceChain:   tensei.Chain(parsed.SourceChain),
		Contract:      parsed.SourceContract,
		TokenId:       parsed.TokenId,
		Nonce:         nonce,
		Recipient:     parsed.Recipient,
		MediaUri:      parsed.MediaUri,
		Collection:    parsed.Collection,
		DwalletId:     parsed.DwalletId,
		DwalletCapId:  parsed.DwalletCapId,
		CustodyPubkey: parsed.CustodyPubkey,
	}

	created, err := self.store.CreateSeal(self.Ctx, NewSeal(sealEvent))
	if err != nil {
		self.monitor.GetReport().Relayer.Errors.EventSourceFailures.Inc()
		self.Log.WithError(err).
			WithField("seal_hash", parsed.SealHash).
			Error("Failed to store observed seal")
		// Enqueue anyway, the orchestrator recreates the record from the
		// event fields
	}
	if created {
		self.Log.WithField("seal_hash", parsed.SealHash).
			WithField("source_chain", sealEvent.SourceChain.String()).
			Info("Seal observed on the orchestration chain")
	}

	self.queue.Enqueue(sealEvent, PriorityNormal)
}
