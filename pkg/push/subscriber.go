// Package push subscribes to the service's websocket push channel and decodes training updates.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// TypeTrainingUpdate is the only message type acted upon. Others are ignored.
const TypeTrainingUpdate = "training_update"

const closeGrace = time.Second

// Message is the push envelope.
type Message struct {
	Type string             `json:"type"`
	Data *api.ProgressState `json:"data,omitempty"`
}

// Handler receives the partial state of each training update.
type Handler func(*api.ProgressState)

// Subscriber holds one push connection per Run call.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
	log    *log.Logger
}

// NewSubscriber creates a subscriber for the websocket at url.
func NewSubscriber(url string) *Subscriber {
	return &Subscriber{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		log: logger.New("push"),
	}
}

// Run connects and delivers training updates to handle until ctx is done or the
// connection fails. It never reconnects. A nil error means ctx ended the subscription.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.log.Debugf("connected to %s", s.url)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			// unblocks ReadMessage below
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGrace))
			conn.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		wg.Wait()
		conn.Close()
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("push channel closed by server: %w", err)
			}
			return fmt.Errorf("read push message: %w", err)
		}

		msg, err := Decode(kind, data)
		if err != nil {
			s.log.Warnf("dropping undecodable push message: %v", err)
			continue
		}
		if msg.Type != TypeTrainingUpdate {
			s.log.Debugf("ignoring push message of type %q", msg.Type)
			continue
		}
		if msg.Data == nil {
			s.log.Debug("training update without data")
			continue
		}
		handle(msg.Data)
	}
}

// ErrUnsupportedFrame is returned for frames that are neither text nor binary.
var ErrUnsupportedFrame = errors.New("unsupported frame type")

// Decode parses a push frame. Text frames carry JSON, binary frames carry MessagePack
// using the same field names.
func Decode(kind int, data []byte) (*Message, error) {
	var msg Message
	switch kind {
	case websocket.TextMessage:
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode json frame: %w", err)
		}
	case websocket.BinaryMessage:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("decode msgpack frame: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFrame, kind)
	}
	return &msg, nil
}

// Encode is the inverse of Decode for binary frames.
func Encode(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
