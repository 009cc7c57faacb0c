// internal/ws/server.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unohub/unohub/internal/middleware"
)

// Subprotocol is the WebSocket subprotocol clients must speak.
const Subprotocol = "uno"

// outBufferSize bounds the per-connection outbound queue. A client that
// cannot drain it fast enough loses messages rather than stalling the
// engine.
const outBufferSize = 16

// Handler receives connection lifecycle events and inbound packets. The
// server invokes HandleMessage sequentially per connection; HandleClose is
// called exactly once after the read loop exits.
type Handler interface {
	HandleOpen(conn uuid.UUID)
	HandleClose(conn uuid.UUID)
	HandleMessage(conn uuid.UUID, data []byte)
}

// client is one accepted WebSocket connection with its outbound queue.
type client struct {
	id     uuid.UUID
	ws     *websocket.Conn
	out    chan []byte
	cancel context.CancelFunc

	// closeReq asks the write pump to flush queued frames and run the
	// close handshake; writerDone is closed when the pump has exited.
	closeReq   chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}
}

// requestClose signals teardown at most once. It never blocks: the write
// pump performs the actual flush and close handshake on its own goroutine.
func (c *client) requestClose() {
	c.closeOnce.Do(func() { close(c.closeReq) })
}

// Server accepts WebSocket upgrades and pumps messages between clients and
// the handler. It also implements the engine's Transport: sends are
// non-blocking enqueues onto per-connection buffered channels and Close is
// a non-blocking signal, so the engine never waits on a slow client.
type Server struct {
	log     *logrus.Logger
	handler Handler

	mu      sync.RWMutex
	clients map[uuid.UUID]*client
}

// NewServer returns a server with no handler bound yet.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		log:     logger,
		clients: make(map[uuid.UUID]*client),
	}
}

// SetHandler binds the message handler. Must be called before the server
// accepts connections.
func (s *Server) SetHandler(h Handler) {
	s.handler = h
}

// Handler returns the HTTP handler that upgrades requests to WebSocket
// connections and runs the read loop until the client goes away.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		cl := &client{
			id:         uuid.New(),
			ws:         c,
			out:        make(chan []byte, outBufferSize),
			cancel:     cancel,
			closeReq:   make(chan struct{}),
			writerDone: make(chan struct{}),
		}

		s.mu.Lock()
		s.clients[cl.id] = cl
		s.mu.Unlock()

		middleware.LogWebSocketConnect(s.log, remoteAddr, cl.id.String())
		s.handler.HandleOpen(cl.id)

		go s.writePump(ctx, cl)
		readErr := s.readPump(ctx, cl)

		// Let the write pump flush anything still queued (a rejection
		// reply, a final error notice) and finish the close handshake
		// before the connection is reported closed.
		cl.requestClose()
		<-cl.writerDone

		s.mu.Lock()
		delete(s.clients, cl.id)
		s.mu.Unlock()

		s.handler.HandleClose(cl.id)
		middleware.LogWebSocketDisconnect(s.log, remoteAddr, cl.id.String(), readErr)
	}
}

// readPump delivers inbound text frames to the handler until the connection
// closes. Returns the terminal read error, or nil for a clean close.
func (s *Server) readPump(ctx context.Context, cl *client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		typ, data, err := cl.ws.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			s.log.Warnf("conn %s: ignoring non-text message type %d", cl.id, typ)
			continue
		}
		s.handler.HandleMessage(cl.id, data)
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with periodic pings. On a close request it flushes the
// remaining queue before the close handshake, so replies enqueued just
// before the close still reach the client.
func (s *Server) writePump(ctx context.Context, cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer close(cl.writerDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cl.closeReq:
			s.drainAndClose(ctx, cl)
			return
		case data, ok := <-cl.out:
			if !ok {
				return
			}
			if err := s.write(ctx, cl, data); err != nil {
				s.log.Warnf("conn %s: write failed: %v", cl.id, err)
				cl.cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := cl.ws.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Warnf("conn %s: ping failed, assuming disconnect: %v", cl.id, err)
				cl.cancel()
				return
			}
		}
	}
}

// drainAndClose writes every frame queued before the close request, then
// closes the connection. Runs on the write pump goroutine; the close
// handshake never happens on the engine's calling goroutine.
func (s *Server) drainAndClose(ctx context.Context, cl *client) {
	defer cl.cancel()
	for {
		select {
		case data := <-cl.out:
			if err := s.write(ctx, cl, data); err != nil {
				s.log.Warnf("conn %s: flush failed: %v", cl.id, err)
				return
			}
		default:
			_ = cl.ws.Close(ProtocolViolation, "closed by server")
			return
		}
	}
}

func (s *Server) write(ctx context.Context, cl *client, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return cl.ws.Write(writeCtx, websocket.MessageText, data)
}

// enqueue queues an encoded message without blocking. A full queue drops
// the message.
func (s *Server) enqueue(cl *client, data []byte) {
	select {
	case cl.out <- data:
	default:
		s.log.Warnf("conn %s: outbound queue full, dropping message", cl.id)
	}
}

// Send unicasts a message to one connection.
func (s *Server) Send(conn uuid.UUID, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.RLock()
	cl, ok := s.clients[conn]
	s.mu.RUnlock()
	if !ok {
		// The client may have raced away between validation and send.
		return nil
	}
	s.enqueue(cl, data)
	return nil
}

// Broadcast queues a message for every connected client.
func (s *Server) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("broadcast marshal failed: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cl := range s.clients {
		s.enqueue(cl, data)
	}
}

// BroadcastExcept queues a message for every connected client but one.
func (s *Server) BroadcastExcept(msg any, except uuid.UUID) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("broadcast marshal failed: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, cl := range s.clients {
		if id == except {
			continue
		}
		s.enqueue(cl, data)
	}
}

// Close tears down a connection from the server side. It only signals the
// write pump and returns immediately; queued frames are flushed first, the
// read loop then exits and the handler's HandleClose fires through the
// normal path.
func (s *Server) Close(conn uuid.UUID) {
	s.mu.RLock()
	cl, ok := s.clients[conn]
	s.mu.RUnlock()
	if ok {
		cl.requestClose()
	}
}
