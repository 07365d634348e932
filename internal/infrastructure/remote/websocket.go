package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
)

// feedRequest is a client-to-server control message on the feed socket.
type feedRequest struct {
	Action   string `json:"action"` // "subscribe" or "unsubscribe"
	ID       string `json:"id"`
	Dataset  string `json:"dataset,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// feedFrame is a server-to-client delivery frame. Changes stays raw until
// the typed source decodes it.
type feedFrame struct {
	ID      string          `json:"id"`
	Initial bool            `json:"initial"`
	Changes json.RawMessage `json:"changes"`
}

type feedEntry struct {
	request feedRequest
	deliver func(feedFrame)
}

// Feed maintains one websocket connection to the remote store's change feed
// and multiplexes any number of dataset subscriptions over it. Lost
// connections are redialed with backoff and all subscriptions replayed, so
// subscribers see a fresh initial batch after a reconnect.
type Feed struct {
	url    string
	logger *logging.ChanneledLogger

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]*feedEntry
	closed bool
	done   chan struct{}
}

// NewFeed creates a feed client for the given websocket URL. Connect must
// be called before subscribing.
func NewFeed(url string, logger *logging.ChanneledLogger) *Feed {
	return &Feed{
		url:    url,
		logger: logger,
		subs:   make(map[string]*feedEntry),
		done:   make(chan struct{}),
	}
}

// Connect dials the feed and starts the read loop.
func (f *Feed) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial change feed %s: %w", f.url, err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.logger.Store().Info("Change feed connected", "url", f.url)
	go f.readLoop(conn)
	return nil
}

func (f *Feed) readLoop(conn *websocket.Conn) {
	for {
		var frame feedFrame
		if err := conn.ReadJSON(&frame); err != nil {
			f.mu.Lock()
			closed := f.closed
			f.mu.Unlock()
			if closed {
				return
			}
			f.logger.Store().Warn("Change feed read failed, reconnecting", "error", err.Error())
			f.reconnect()
			return
		}
		f.dispatch(frame)
	}
}

func (f *Feed) dispatch(frame feedFrame) {
	f.mu.Lock()
	entry, ok := f.subs[frame.ID]
	f.mu.Unlock()

	if !ok {
		// Frame for a subscription torn down while in flight.
		return
	}
	entry.deliver(frame)
}

// reconnect redials with exponential backoff and replays every live
// subscription on the new connection.
func (f *Feed) reconnect() {
	backoff := time.Second
	for {
		select {
		case <-f.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
		if err != nil {
			f.logger.Store().Warn("Change feed redial failed", "error", err.Error(), "backoff", backoff.String())
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			conn.Close()
			return
		}
		f.conn = conn
		requests := make([]feedRequest, 0, len(f.subs))
		for _, entry := range f.subs {
			requests = append(requests, entry.request)
		}
		f.mu.Unlock()

		ok := true
		for _, req := range requests {
			if err := conn.WriteJSON(req); err != nil {
				f.logger.Store().Warn("Subscription replay failed", "error", err.Error())
				ok = false
				break
			}
		}
		if !ok {
			conn.Close()
			continue
		}

		f.logger.Store().Info("Change feed reconnected", "subscriptions", len(requests))
		go f.readLoop(conn)
		return
	}
}

// subscribe registers a raw subscription and sends the subscribe request.
func (f *Feed) subscribe(dataset string, q Query, deliver func(feedFrame)) (Unsubscribe, error) {
	req := feedRequest{
		Action:   "subscribe",
		ID:       ulid.Make().String(),
		Dataset:  dataset,
		TenantID: q.TenantID,
	}
	if !q.From.IsZero() {
		req.From = q.From.UTC().Format(time.RFC3339)
	}
	if !q.To.IsZero() {
		req.To = q.To.UTC().Format(time.RFC3339)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, fmt.Errorf("change feed is closed")
	}
	conn := f.conn
	if conn == nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("change feed is not connected")
	}
	f.subs[req.ID] = &feedEntry{request: req, deliver: deliver}
	err := conn.WriteJSON(req)
	if err != nil {
		delete(f.subs, req.ID)
	}
	f.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s feed: %w", dataset, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, req.ID)
			conn := f.conn
			closed := f.closed
			f.mu.Unlock()

			if closed || conn == nil {
				return
			}
			unreq := feedRequest{Action: "unsubscribe", ID: req.ID}
			if err := conn.WriteJSON(unreq); err != nil {
				f.logger.Store().Debug("Unsubscribe send failed", "error", err.Error())
			}
		})
	}, nil
}

// Connected reports whether the feed currently holds a live connection.
func (f *Feed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn != nil && !f.closed
}

// Close tears down the connection and all subscriptions.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.done)
	conn := f.conn
	f.conn = nil
	f.subs = make(map[string]*feedEntry)
	f.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// FeedSource adapts one dataset's frames on a shared Feed into the typed
// Source contract.
type FeedSource[R records.Record] struct {
	feed    *Feed
	dataset string
	logger  *logging.ChanneledLogger
}

var _ Source[records.Session] = (*FeedSource[records.Session])(nil)

// NewFeedSource creates a typed source for one dataset on the shared feed.
func NewFeedSource[R records.Record](feed *Feed, dataset string) *FeedSource[R] {
	return &FeedSource[R]{feed: feed, dataset: dataset, logger: feed.logger}
}

// Subscribe opens a live subscription for the dataset.
func (s *FeedSource[R]) Subscribe(q Query, deliver func(Delivery[R])) (Unsubscribe, error) {
	return s.feed.subscribe(s.dataset, q, func(frame feedFrame) {
		var changes []Change[R]
		if len(frame.Changes) > 0 {
			if err := json.Unmarshal(frame.Changes, &changes); err != nil {
				s.logger.Store().Warn("Dropping undecodable delivery",
					"dataset", s.dataset, "tenantId", q.TenantID, "error", err.Error())
				return
			}
		}
		deliver(Delivery[R]{Initial: frame.Initial, Changes: changes})
	})
}

// Fetch performs a one-shot read by opening a short-lived subscription and
// waiting for its initial batch.
func (s *FeedSource[R]) Fetch(ctx context.Context, q Query) ([]R, error) {
	result := make(chan []R, 1)

	unsubscribe, err := s.Subscribe(q, func(d Delivery[R]) {
		if !d.Initial {
			return
		}
		recs := make([]R, 0, len(d.Changes))
		for _, c := range d.Changes {
			recs = append(recs, c.Record)
		}
		select {
		case result <- recs:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer unsubscribe()

	select {
	case recs := <-result:
		return recs, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch of %s timed out: %w", s.dataset, ctx.Err())
	}
}
