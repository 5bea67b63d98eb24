package notifier

import (
	"context"
	"sync"
	"time"

	"habitrooms/internal/model"
	"habitrooms/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientSendBuffer = 16
	writeWait        = 10 * time.Second
)

// Envelope is the wire shape of every pushed event.
type Envelope struct {
	Type    string             `json:"type"`
	Payload model.Notification `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Envelope
	done chan struct{}
	stop sync.Once
}

// close tears the client down exactly once, whichever of the read loop,
// a replacement connection or hub shutdown gets there first.
func (c *client) close() {
	c.stop.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub tracks which users hold an open socket and fans notifications out to
// them. One connection per user; a new connection replaces the old one.
// Pushes to offline users are silently dropped, and a slow consumer loses
// events rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*client

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]*client),
	}
}

// Start arms the hub. Stop (or the parent context) closes every connection.
func (h *Hub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		<-ctx.Done()

		h.mu.Lock()
		for id, c := range h.clients {
			c.close()
			delete(h.clients, id)
		}
		h.mu.Unlock()
	}()
}

func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

// Register takes ownership of the connection and serves it until the peer
// goes away.
func (h *Hub) Register(telegramID int64, conn *websocket.Conn) {
	c := &client{
		conn: conn,
		send: make(chan Envelope, clientSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if old, ok := h.clients[telegramID]; ok {
		old.close()
	}
	h.clients[telegramID] = c
	h.mu.Unlock()

	go h.writeLoop(telegramID, c)
	go h.readLoop(telegramID, c)
}

func (h *Hub) unregister(telegramID int64, c *client) {
	h.mu.Lock()
	if h.clients[telegramID] == c {
		delete(h.clients, telegramID)
	}
	h.mu.Unlock()
	c.close()
}

// readLoop only watches for the peer closing; clients never send anything
// the hub cares about.
func (h *Hub) readLoop(telegramID int64, c *client) {
	defer h.unregister(telegramID, c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Logger().Debug("websocket closed unexpectedly",
					zap.Int64("telegram_id", telegramID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(telegramID int64, c *client) {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			data, err := json.Marshal(env)
			if err != nil {
				logger.Logger().Error("failed to marshal notification",
					zap.String("type", env.Type), zap.Error(err))
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Logger().Debug("websocket write failed",
					zap.Int64("telegram_id", telegramID), zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) Push(telegramID int64, n model.Notification) {
	h.mu.RLock()
	c, ok := h.clients[telegramID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case c.send <- Envelope{Type: n.NotificationKind(), Payload: n}:
	default:
		logger.Logger().Warn("dropping notification for slow consumer",
			zap.Int64("telegram_id", telegramID), zap.String("type", n.NotificationKind()))
	}
}

func (h *Hub) Broadcast(telegramIDs []int64, n model.Notification) {
	for _, id := range telegramIDs {
		h.Push(id, n)
	}
}

// Online reports whether the user currently holds an open socket.
func (h *Hub) Online(telegramID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[telegramID]
	return ok
}
