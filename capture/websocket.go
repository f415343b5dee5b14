package capture

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// bridgeMessage is one frame from the speech bridge. Only final results are
// ever sent because the session is opened with interim_results=false.
type bridgeMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WebSocketRecognizer streams recognition results from a speech bridge
// that owns the microphone.
type WebSocketRecognizer struct {
	endpoint string
	lang     string
	dialer   websocket.Dialer
	log      *logrus.Entry
	events   chan Event

	mu     sync.Mutex
	active bool
	conn   *websocket.Conn
}

func NewWebSocketRecognizer(endpoint, lang string, log *logrus.Entry) *WebSocketRecognizer {
	return &WebSocketRecognizer{
		endpoint: endpoint,
		lang:     lang,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      log.WithField("backend", "websocket"),
		events:   make(chan Event, 16),
	}
}

func (r *WebSocketRecognizer) Events() <-chan Event { return r.events }

func (r *WebSocketRecognizer) Start(ctx context.Context) error {
	u, err := r.sessionURL()
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrAlreadyActive
	}
	r.active = true
	r.mu.Unlock()

	go r.run(ctx, u)
	return nil
}

// Close drops the current connection, which ends the session.
func (r *WebSocketRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *WebSocketRecognizer) sessionURL() (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("speech bridge url: %w", err)
	}
	q := u.Query()
	if r.lang != "" {
		q.Set("lang", r.lang)
	}
	q.Set("continuous", "true")
	q.Set("interim_results", "false")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *WebSocketRecognizer) run(ctx context.Context, u string) {
	defer r.finish(ctx)

	conn, resp, err := r.dialer.DialContext(ctx, u, nil)
	if err != nil {
		entry := r.log.WithError(err)
		if resp != nil {
			entry = entry.WithField("status", resp.StatusCode)
		}
		entry.Warn("speech bridge dial failed")
		emit(ctx, r.events, Error("network"))
		return
	}
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg bridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				r.log.Debug("speech bridge closed")
				return
			}
			r.log.WithError(err).Warn("speech bridge read failed")
			emit(ctx, r.events, Error("network"))
			return
		}
		switch msg.Type {
		case "result":
			emit(ctx, r.events, Result(msg.Transcript))
		case "error":
			code := msg.Error
			if code == "" {
				code = "unknown"
			}
			emit(ctx, r.events, Error(code))
		case "end":
			return
		default:
			r.log.WithField("type", msg.Type).Debug("ignoring bridge message")
		}
	}
}

// finish marks the session inactive before reporting its end, so a restart
// triggered by End never sees ErrAlreadyActive.
func (r *WebSocketRecognizer) finish(ctx context.Context) {
	r.mu.Lock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	r.active = false
	r.mu.Unlock()
	emit(ctx, r.events, End())
}
