package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/marcus/giftwell/internal/logger"
)

const writeTimeout = 5 * time.Second

// controlFrame is sent to the server to (un)subscribe a topic.
type controlFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Client is a Provider backed by a single WebSocket connection that
// reconnects with exponential backoff until its context ends.
type Client struct {
	url        string
	header     http.Header
	dialer     *websocket.Dialer
	newBackOff func() backoff.BackOff
	log        logger.Logger

	reg   *Registry
	state *stateNotifier

	// mu guards conn and serializes writes and topic (un)subscription so a
	// topic is never announced twice for one connection.
	mu   sync.Mutex
	conn *websocket.Conn
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sends a bearer token on the upgrade request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// WithDialer replaces the default dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) { c.dialer = d }
}

// WithBackOff sets the reconnect policy. The factory is called once per Run.
func WithBackOff(fn func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = fn }
}

// NewClient returns a disconnected client for the WebSocket endpoint url.
// Call Run to connect.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		header:     http.Header{},
		dialer:     websocket.DefaultDialer,
		newBackOff: defaultBackOff,
		log:        logger.Mock(),
		reg:        NewRegistry(),
		state:      newStateNotifier(Disconnected),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.WithModule(c.log, "realtime")
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// State returns the connection state.
func (c *Client) State() ConnState { return c.state.get() }

// OnStateChange calls fn on every state transition.
func (c *Client) OnStateChange(fn func(ConnState)) *Subscription {
	return c.state.listen(fn)
}

// Subscribe registers h for topic. The first subscriber on a topic sends a
// subscribe frame if connected; otherwise the topic goes out on the next
// connect.
func (c *Client) Subscribe(topic string, h Handler) *Subscription {
	c.mu.Lock()
	tok := c.reg.Add(topic, h)
	if c.reg.Count(topic) == 1 && c.conn != nil {
		c.sendLocked(controlFrame{Action: "subscribe", Topic: topic})
	}
	c.mu.Unlock()

	return newSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, remaining, ok := c.reg.remove(tok)
		if ok && remaining == 0 && c.conn != nil {
			c.sendLocked(controlFrame{Action: "unsubscribe", Topic: topic})
		}
	})
}

// Topics returns the topics with at least one local subscriber.
func (c *Client) Topics() []string { return c.reg.Topics() }

// Run connects and dispatches events until ctx is done, reconnecting after
// any failure. Connection errors are logged, never returned.
func (c *Client) Run(ctx context.Context) error {
	b := c.newBackOff()
	defer c.state.set(Disconnected)

	for {
		c.state.set(Connecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			c.state.set(Disconnected)
			if ctx.Err() != nil {
				return nil
			}
			c.log.Debug().Err(err).Str("url", c.url).Msg("dial failed")
		} else {
			b.Reset()
			c.attach(conn)
			c.state.set(Connected)
			c.log.Info().Str("url", c.url).Msg("realtime connected")

			err = c.readLoop(ctx, conn)
			c.detach(conn)
			c.state.set(Disconnected)
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Msg("realtime connection lost")
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			c.log.Error().Msg("realtime reconnect gave up")
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// attach installs conn and announces every active topic on it.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	for _, topic := range c.reg.Topics() {
		c.sendLocked(controlFrame{Action: "subscribe", Topic: topic})
	}
}

func (c *Client) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.mu.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by server")
			}
			return err
		}

		ev, err := Decode(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping realtime frame")
			continue
		}
		n := c.reg.Dispatch(ev)
		c.log.Trace().Str("topic", ev.Topic).Str("event", string(ev.Kind)).Int("handlers", n).Msg("dispatched")
	}
}

// sendLocked writes a control frame. c.mu must be held. A failed write is
// logged; the read loop notices the broken connection.
func (c *Client) sendLocked(f controlFrame) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(f); err != nil {
		c.log.Debug().Err(err).Str("action", f.Action).Str("topic", f.Topic).Msg("control frame write failed")
	}
}
