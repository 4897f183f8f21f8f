package task

import (
	"time"

	"github.com/ika-tensei/relayer/src/utils/config"
	"nhooyr.io/websocket"
)

// Maintains a persistent websocket connection, reconnects with a delay
// whenever it breaks. Subscriptions are re-established through the
// onConnected callback after every reconnect.
type Websocket struct {
	*Task

	url             string
	onConnected     func(conn *websocket.Conn) error
	onMessage       func(data []byte) error
	onDisconnected  func()
	backoffInterval time.Duration
}

func NewWebsocket(config *config.Config, name string) (self *Websocket) {
	self = new(Websocket)

	self.backoffInterval = time.Second

	self.Task = NewTask(config, name).
		WithSubtaskFunc(self.run)

	return
}

func (self *Websocket) WithUrl(url string) *Websocket {
	self.url = url
	return self
}

func (self *Websocket) WithOnConnected(f func(conn *websocket.Conn) error) *Websocket {
	self.onConnected = f
	return self
}

func (self *Websocket) WithOnMessage(f func(data []byte) error) *Websocket {
	self.onMessage = f
	return self
}

func (self *Websocket) WithOnDisconnected(f func()) *Websocket {
	self.onDisconnected = f
	return self
}

func (self *Websocket) WithBackoffInterval(v time.Duration) *Websocket {
	self.backoffInterval = v
	return self
}

func (self *Websocket) run() (err error) {
	for {
		if self.IsStopping.Load() {
			return nil
		}

		err = self.connect()
		if err != nil && !self.IsStopping.Load() {
			self.Log.WithError(err).Error("Websocket connection failed, reconnecting")
		}

		select {
		case <-self.StopChannel:
			self.Log.Debug("Task stopped")
			return nil
		case <-time.After(self.backoffInterval):
			// pass through
		}
	}
}

func (self *Websocket) connect() (err error) {
	conn, _, err := websocket.Dial(self.Ctx, self.url, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1024 * 1024)

	defer func() {
		conn.Close(websocket.StatusNormalClosure, "")
		if self.onDisconnected != nil {
			self.onDisconnected()
		}
	}()

	if self.onConnected != nil {
		err = self.onConnected(conn)
		if err != nil {
			return
		}
	}

	for {
		var data []byte
		_, data, err = conn.Read(self.Ctx)
		if err != nil {
			return
		}

		if self.onMessage == nil {
			continue
		}

		err = self.onMessage(data)
		if err != nil {
			return
		}
	}
}
