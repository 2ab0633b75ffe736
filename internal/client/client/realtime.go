package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/gorilla/websocket"
)

const wsCloseWait = time.Second

// Subscription streams the events of one realtime topic. C is closed when
// the stream ends; Err then tells why (nil after Close or a normal close).
type Subscription struct {
	C <-chan portal.Event

	conn *websocket.Conn
	done chan struct{}
	wg   sync.WaitGroup

	once sync.Once
	mu   sync.Mutex
	err  error
}

// Subscribe opens a realtime stream on topic (portal.AuthTopic or
// portal.TeamTopic). The stream ends when ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return nil, err
	}
	if pair.Empty() {
		return nil, ErrNotSignedIn
	}

	conn, err := c.dial(ctx, topic, pair.AccessToken)
	if errors.Is(err, common.ErrTokenExpired) {
		var access string
		if access, err = c.refresh(ctx, pair.AccessToken); err == nil {
			conn, err = c.dial(ctx, topic, access)
		}
	}
	if err != nil {
		return nil, err
	}

	ch := make(chan portal.Event)
	s := &Subscription{C: ch, conn: conn, done: make(chan struct{})}

	s.wg.Add(2)
	go s.read(ch)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-s.done:
		}
	}()
	return s, nil
}

func (c *Client) dial(ctx context.Context, topic, access string) (*websocket.Conn, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/v1/realtime"
	u.RawQuery = url.Values{"topic": {topic}}.Encode()

	header := http.Header{"Authorization": {"Bearer " + access}}
	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			return nil, decodeError(resp)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	return conn, nil
}

func (s *Subscription) read(ch chan<- portal.Event) {
	defer s.wg.Done()
	defer close(ch)

	for {
		var ev portal.Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			s.finish(err)
			return
		}
		select {
		case ch <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *Subscription) finish(err error) {
	select {
	case <-s.done:
		// Closed locally; the read error is the consequence.
		err = nil
	default:
		switch {
		case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			err = nil
		case websocket.IsCloseError(err, websocket.CloseTryAgainLater):
			err = ErrEvicted
		}
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.once.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseWait))
		_ = s.conn.Close()
	})
}

// Err reports why the stream ended. Valid once C is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the stream and waits for its goroutines.
func (s *Subscription) Close() {
	s.shutdown()
	s.wg.Wait()
}
