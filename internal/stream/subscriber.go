// Package stream implements the push-channel subscriber: a websocket client
// that joins an app-scoped room and delivers validation updates in FIFO
// order.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hookview/dashboard/internal/models"
)

// Message types on the live channel.
const (
	MsgTypeSubscribe        = "subscribe"
	MsgTypeValidationUpdate = "validation_update"
	MsgTypePing             = "ping"
	MsgTypePong             = "pong"
)

// Envelope is the wire frame exchanged on the live channel.
type Envelope struct {
	Type      string           `json:"type"`
	AppID     int              `json:"app_id,omitempty"`
	Log       *models.LogEvent `json:"log,omitempty"`
	Timestamp int64            `json:"timestamp,omitempty"`
}

const (
	eventBuffer      = 256
	pingInterval     = 30 * time.Second
	reconnectBackoff = 2 * time.Second
	maxBackoff       = 30 * time.Second
)

// Subscriber maintains the subject-scoped subscription. Events for the app
// arrive on Events(); connection state changes arrive on Status().
type Subscriber struct {
	url    string
	appID  int
	events chan models.LogEvent
	status chan bool
}

// NewSubscriber creates a subscriber for the given websocket URL and app.
func NewSubscriber(url string, appID int) *Subscriber {
	return &Subscriber{
		url:    url,
		appID:  appID,
		events: make(chan models.LogEvent, eventBuffer),
		status: make(chan bool, 8),
	}
}

// Events returns the FIFO delivery channel. Closed when Run returns.
func (s *Subscriber) Events() <-chan models.LogEvent { return s.events }

// Status returns connection state changes (true = connected).
func (s *Subscriber) Status() <-chan bool { return s.status }

// Run connects and keeps the subscription alive, reconnecting with capped
// backoff until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.events)
	defer close(s.status)

	backoff := reconnectBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.runOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[stream] connection lost: %v", err)
		}
		s.notify(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(Envelope{Type: MsgTypeSubscribe, AppID: s.appID}); err != nil {
		return err
	}
	s.notify(true)

	// Ping pump keeps the connection alive; closing the connection on
	// context cancel unblocks the read loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteJSON(Envelope{Type: MsgTypePing, Timestamp: time.Now().UnixMilli()}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[stream] dropping undecodable frame: %v", err)
			continue
		}

		switch env.Type {
		case MsgTypeValidationUpdate:
			if env.AppID != s.appID || env.Log == nil {
				continue
			}
			select {
			case s.events <- *env.Log:
			default:
				log.Printf("[stream] dropped event for slow consumer")
			}
		case MsgTypePong:
			// keepalive ack
		}
	}
}

func (s *Subscriber) notify(connected bool) {
	select {
	case s.status <- connected:
	default:
	}
}
