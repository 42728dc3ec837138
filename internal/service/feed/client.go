package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"skyline/internal/domain/models"
	drepo "skyline/internal/domain/repository"
)

// Client implements a FeedStream backed by the live play-by-play WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	gamePks        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a new live-feed FeedStream.
func New(apiKey, websocketURL string, gamePks []string, reconnectDelay, pingInterval time.Duration) drepo.FeedStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		gamePks:        gamePks,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	log.Printf("feed: connected")
	return nil
}

// current snapshots the connection. The ping and read loops outlive any single
// connection, so they must not touch c.conn directly.
func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Subscribe subscribes to configured games.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("feed not connected")
	}
	for _, pk := range c.gamePks {
		msg := map[string]string{"type": "subscribe", "game_pk": pk}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", pk, err)
		}
		log.Printf("feed: subscribed %s", pk)
	}
	return nil
}

// wire frame pushed by the feed; only "play" frames carry payloads we keep.
type feedFrame struct {
	Type string       `json:"type"`
	Data []models.Play `json:"data"`
}

// Read streams Play events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Play, <-chan error) {
	plays := make(chan *models.Play, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if conn := c.current(); conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(plays)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				conn := c.current()
				if conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var f feedFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-play frames
					continue
				}
				if f.Type != "play" {
					continue
				}
				for i := range f.Data {
					p := f.Data[i]
					if p.Timestamp == 0 {
						p.Timestamp = time.Now().Unix()
					}
					select {
					case plays <- &p:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return plays, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
