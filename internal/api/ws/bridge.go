package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/events"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

var (
	ErrClosed       = errors.New("bridge is closed")
	ErrOutboxFull   = errors.New("host not connected and outbox is full")
	ErrHostAttached = errors.New("a host is already connected")
)

const (
	defaultOutboxSize   = 64
	defaultWriteTimeout = 10 * time.Second
)

// Bridge is the host integration layer over a single WebSocket connection
type Bridge struct {
	*events.Emitter

	outboxSize   int
	writeTimeout time.Duration
	logger       *zap.Logger
	metrics      *monitoring.Metrics
	upgrader     websocket.Upgrader

	mu     sync.Mutex
	conn   *websocket.Conn // Protected by mu
	outbox [][]byte        // Protected by mu
	closed bool            // Protected by mu
}

// NewBridge creates a bridge with no host connected
func NewBridge(cfg config.BridgeConfig, logger *zap.Logger, metrics *monitoring.Metrics) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		Emitter:      events.NewEmitter(),
		outboxSize:   cfg.OutboxSize,
		writeTimeout: time.Duration(cfg.WriteTimeout),
		logger:       logger,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			// The host is a local process
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if b.outboxSize <= 0 {
		b.outboxSize = defaultOutboxSize
	}
	if b.writeTimeout <= 0 {
		b.writeTimeout = defaultWriteTimeout
	}
	return b
}

// Connected reports whether a host is attached
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Pending returns the number of queued frames
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outbox)
}

// SendReady tells the host the shell finished restoring
func (b *Bridge) SendReady(ctx context.Context) error {
	return b.send(ctx, Frame{Type: FrameReady})
}

// SendQuitAllowed tells the host it may exit
func (b *Bridge) SendQuitAllowed(ctx context.Context) error {
	return b.send(ctx, Frame{Type: FrameQuitAllowed})
}

// SendQuitAborted tells the host the quit was cancelled
func (b *Bridge) SendQuitAborted(ctx context.Context) error {
	return b.send(ctx, Frame{Type: FrameQuitAborted})
}

// RegisterMenu registers the menu contributions of a document type
func (b *Bridge) RegisterMenu(ctx context.Context, docType string, options types.MenuOptions) error {
	return b.send(ctx, Frame{Type: FrameRegisterMenu, DocType: docType, Menu: &options})
}

// ShowContextMenu asks the host to open a native context menu
func (b *Bridge) ShowContextMenu(ctx context.Context, menuType string, options map[string]interface{}) error {
	return b.send(ctx, Frame{Type: FrameContextMenu, MenuType: menuType, Options: options})
}

// send writes frame to the host, or queues it while no host is attached
func (b *Bridge) send(ctx context.Context, frame Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", frame.Type, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.conn == nil {
		if len(b.outbox) >= b.outboxSize {
			return ErrOutboxFull
		}
		b.outbox = append(b.outbox, data)
		b.logger.Debug("frame queued", zap.String("type", frame.Type), zap.Int("pending", len(b.outbox)))
		return nil
	}

	if err := b.writeLocked(data); err != nil {
		b.detachLocked(b.conn)
		return fmt.Errorf("failed to send %s frame: %w", frame.Type, err)
	}
	return nil
}

// writeLocked must be called with mu held
func (b *Bridge) writeLocked(data []byte) error {
	if err := b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// HandleConnection upgrades the request and serves the host until it disconnects
func (b *Bridge) HandleConnection(c *gin.Context) {
	b.ServeHTTP(c.Writer, c.Request)
}

// ServeHTTP implements http.Handler
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	busy, closed := b.conn != nil, b.closed
	b.mu.Unlock()

	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if busy {
		http.Error(w, ErrHostAttached.Error(), http.StatusConflict)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if err := b.attach(conn); err != nil {
		b.logger.Warn("host rejected", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
		return
	}

	b.readLoop(r.Context(), conn)
}

// attach makes conn the host connection and flushes queued frames
func (b *Bridge) attach(conn *websocket.Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.conn != nil {
		return ErrHostAttached
	}

	b.conn = conn
	b.metrics.HostConnected(true)

	queued := b.outbox
	b.outbox = nil
	for i, data := range queued {
		if err := b.writeLocked(data); err != nil {
			// Keep what was not delivered for the next host
			b.outbox = queued[i:]
			b.detachLocked(conn)
			return fmt.Errorf("failed to flush outbox: %w", err)
		}
	}

	b.logger.Info("host connected", zap.Int("flushed", len(queued)))
	return nil
}

// detachLocked must be called with mu held
func (b *Bridge) detachLocked(conn *websocket.Conn) {
	if b.conn != conn || conn == nil {
		return
	}
	b.conn = nil
	b.metrics.HostConnected(false)
	conn.Close()
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		b.detachLocked(conn)
		b.mu.Unlock()
		b.logger.Info("host disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := sonic.Unmarshal(data, &frame); err != nil {
			b.logger.Warn("invalid frame", zap.Error(err))
			b.reply(ctx, Frame{Type: FrameError, Message: "invalid frame"})
			continue
		}

		b.dispatch(ctx, frame)
	}
}

func (b *Bridge) dispatch(ctx context.Context, frame Frame) {
	switch {
	case frame.Type == FramePing:
		b.reply(ctx, Frame{Type: FramePong})
	case inbound[frame.Type]:
		delivered := b.Emit(ctx, frame.event())
		b.logger.Debug("host event", zap.String("event", frame.Type), zap.Int("handlers", delivered))
	default:
		b.logger.Warn("unknown frame type", zap.String("type", frame.Type))
		b.reply(ctx, Frame{Type: FrameError, Message: "unknown frame type: " + frame.Type})
	}
}

func (b *Bridge) reply(ctx context.Context, frame Frame) {
	if err := b.send(ctx, frame); err != nil {
		b.logger.Debug("failed to reply", zap.String("type", frame.Type), zap.Error(err))
	}
}

// Close disconnects the host and rejects further frames
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.outbox = nil

	if b.conn != nil {
		_ = b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
		_ = b.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
		b.detachLocked(b.conn)
	}
	return nil
}
