package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type scanEvent struct {
	Type string `json:"type"`
	response.ScanResponse
}

type scanClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// ScanFeed pushes every scan outcome to connected staff clients. The client
// set is owned by the Run goroutine.
type ScanFeed struct {
	upgrader   websocket.Upgrader
	clients    map[*scanClient]struct{}
	count      atomic.Int64
	broadcast  chan []byte
	register   chan *scanClient
	unregister chan *scanClient
	done       chan struct{}
}

// NewScanFeed accepts WebSocket upgrades from allowedOrigins, or from any
// origin when the list is empty.
func NewScanFeed(allowedOrigins []string) *ScanFeed {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &ScanFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		clients:    make(map[*scanClient]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *scanClient),
		unregister: make(chan *scanClient),
		done:       make(chan struct{}),
	}
}

// Run serves the feed until ctx is cancelled, then disconnects every client.
func (f *ScanFeed) Run(ctx context.Context) {
	defer close(f.done)

	for {
		select {
		case <-ctx.Done():
			for client := range f.clients {
				f.drop(client)
			}
			return
		case client := <-f.register:
			f.clients[client] = struct{}{}
			f.count.Add(1)
			metrics.ScanClientConnected()
		case client := <-f.unregister:
			if _, ok := f.clients[client]; ok {
				f.drop(client)
			}
		case message := <-f.broadcast:
			for client := range f.clients {
				select {
				case client.send <- message:
				default:
					// Too slow to keep up.
					f.drop(client)
				}
			}
		}
	}
}

func (f *ScanFeed) drop(client *scanClient) {
	delete(f.clients, client)
	close(client.send)
	f.count.Add(-1)
	metrics.ScanClientDisconnected()
}

// Clients returns the number of connected clients.
func (f *ScanFeed) Clients() int {
	return int(f.count.Load())
}

// Broadcast never blocks the scan that produced outcome. When the feed is
// backed up the event is dropped.
func (f *ScanFeed) Broadcast(outcome domain.ScanOutcome) {
	message, err := json.Marshal(scanEvent{
		Type:         "scan",
		ScanResponse: response.NewScanResponse(outcome),
	})
	if err != nil {
		zap.L().Error("failed to encode scan event", zap.Error(err))
		return
	}

	select {
	case f.broadcast <- message:
	default:
		zap.L().Warn("scan feed backed up, dropping event", zap.String("ticket_id", outcome.TicketID))
	}
}

// HandleScanFeed godoc
// @Summary      Live feed of scan outcomes
// @Description  Upgrades to a WebSocket. Browsers may pass the token as the token query parameter.
// @Tags         admin
// @Success      101      {string}   string "Switching Protocols"
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Router       /admin/scan [get]
// @Security     BearerAuth
func (f *ScanFeed) HandleScanFeed(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := f.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		zap.L().Debug("scan feed upgrade failed", zap.Error(err))
		return
	}

	client := &scanClient{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	select {
	case f.register <- client:
	case <-f.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(f)
}

func (c *scanClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; staff clients do not send data.
func (c *scanClient) readPump(f *ScanFeed) {
	defer func() {
		select {
		case f.unregister <- c:
		case <-f.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("scan feed client closed", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}
