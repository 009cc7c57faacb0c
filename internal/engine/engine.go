// internal/engine/engine.go
package engine

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unohub/unohub/internal/auth"
	"github.com/unohub/unohub/internal/config"
	"github.com/unohub/unohub/internal/game"
	"github.com/unohub/unohub/internal/lobby"
	"github.com/unohub/unohub/internal/models"
	"github.com/unohub/unohub/internal/protocol"
)

// MaxNameLen bounds player names on the connect handshake.
const MaxNameLen = 24

// Transport is the collaborator surface the engine drives for outbound
// traffic. Implementations must not block: the engine calls these while
// holding its state lock, so sends have to be non-blocking enqueues
// (buffered per-connection channels) with best-effort delivery.
type Transport interface {
	Send(conn uuid.UUID, msg any) error
	Broadcast(msg any)
	BroadcastExcept(msg any, except uuid.UUID)
	Close(conn uuid.UUID)
}

// Engine is the per-message orchestration core. Every inbound packet runs
// the same pipeline: identity binding, throttling, type-specific validation
// and state transition, then a distribution decision that is a static
// property of the message type. One mutex serializes the whole
// validate -> mutate -> decide sequence across all connections; lobby and
// game state are only ever touched under it.
type Engine struct {
	log       *logrus.Logger
	transport Transport

	deckCount    int
	passwordHash string
	limits       map[protocol.Type]time.Duration

	mu       sync.Mutex
	lobby    *lobby.Lobby
	game     *game.Game // nil outside the in-game phase
	lastSeen map[uuid.UUID]map[protocol.Type]time.Time

	now func() time.Time
}

// New builds an engine bound to the given transport. The shared server
// password is hashed once here; connect attempts are verified against the
// hash.
func New(cfg *config.Config, logger *logrus.Logger, transport Transport) (*Engine, error) {
	hash, err := auth.HashPassword(cfg.ServerPassword)
	if err != nil {
		return nil, err
	}
	return &Engine{
		log:          logger,
		transport:    transport,
		deckCount:    cfg.DeckCount,
		passwordHash: hash,
		limits: map[protocol.Type]time.Duration{
			protocol.TypeChat:      cfg.ChatInterval,
			protocol.TypePlayCard:  cfg.PlayInterval,
			protocol.TypeDrawCards: cfg.PlayInterval,
			protocol.TypeReady:     cfg.ReadyInterval,
		},
		lobby:    lobby.New(),
		lastSeen: make(map[uuid.UUID]map[protocol.Type]time.Time),
		now:      time.Now,
	}, nil
}

// HandleOpen is invoked by the transport when a connection is accepted.
// Nothing is bound until the connect handshake arrives.
func (e *Engine) HandleOpen(conn uuid.UUID) {
	e.log.WithField("conn", conn).Debug("connection opened")
}

// HandleClose is invoked by the transport on connection loss. The identity
// binding, lobby entry, and throttle entries for the connection are removed;
// a seated player vanishing mid-game abandons the round.
func (e *Engine) HandleClose(conn uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.lastSeen, conn)

	name, bound := e.lobby.NameFor(conn)
	if !bound {
		e.log.WithField("conn", conn).Debug("unbound connection closed")
		return
	}
	if err := e.lobby.RemovePlayer(name); err != nil {
		e.log.WithError(err).WithField("player", name).Warn("failed to remove player on close")
	}
	e.transport.Broadcast(protocol.NewPlayerDisconnected(name))
	e.log.WithFields(logrus.Fields{"conn": conn, "player": name}).Info("player disconnected")

	if e.game != nil && e.game.Phase() == game.PhaseInProgress && e.game.PlayerIndex(name) >= 0 {
		e.log.WithField("player", name).Info("seated player lost, abandoning game")
		e.transport.Broadcast(protocol.NewGameEnded("", protocol.EndReasonAbandoned))
		e.endGame()
	}
}

// HandleMessage is the single entry point for every inbound packet. All
// validation failures are caught and classified here: fatal ones close the
// connection, non-fatal ones drop the message (optionally with a private
// notice) and leave state unchanged.
func (e *Engine) HandleMessage(conn uuid.UUID, data []byte) {
	var msg protocol.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		e.log.WithError(err).WithField("conn", conn).Warn("malformed packet")
		e.closeFatal(conn, "malformed packet")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch msg.Type {
	case protocol.TypeConnect:
		e.handleConnect(conn, &msg)

	case protocol.TypeReady, protocol.TypePlayCard, protocol.TypeDrawCards, protocol.TypeChat:
		name, bound := e.lobby.NameFor(conn)
		if !bound {
			e.log.WithFields(logrus.Fields{"conn": conn, "type": msg.Type}).Warn("message before handshake")
			e.closeFatal(conn, "not authenticated")
			return
		}
		// A claimed sender name must match the connection's binding.
		if msg.Name != "" && msg.Name != name {
			e.log.WithFields(logrus.Fields{
				"conn": conn, "bound": name, "claimed": msg.Name,
			}).Warn("sender identity mismatch")
			e.closeFatal(conn, "sender identity mismatch")
			return
		}
		if !e.admit(conn, msg.Type) {
			return // throttled: silent non-fatal drop
		}
		switch msg.Type {
		case protocol.TypeReady:
			e.handleReady(conn, name, &msg)
		case protocol.TypePlayCard:
			e.handlePlay(conn, name, &msg)
		case protocol.TypeDrawCards:
			e.handleDraw(conn, name)
		case protocol.TypeChat:
			e.handleChat(conn, name, &msg)
		}

	default:
		e.log.WithFields(logrus.Fields{"conn": conn, "type": msg.Type}).Warn("unexpected message type")
		e.closeFatal(conn, "unexpected message type")
	}
}

// admit enforces the per-(connection, type) minimum re-submission interval.
// The timestamp is updated only when the message is admitted.
func (e *Engine) admit(conn uuid.UUID, t protocol.Type) bool {
	limit, limited := e.limits[t]
	if !limited || limit <= 0 {
		return true
	}
	now := e.now()
	perConn := e.lastSeen[conn]
	if perConn == nil {
		perConn = make(map[protocol.Type]time.Time)
		e.lastSeen[conn] = perConn
	}
	if last, seen := perConn[t]; seen && now.Sub(last) < limit {
		e.log.WithFields(logrus.Fields{"conn": conn, "type": t}).Debug("message throttled")
		return false
	}
	perConn[t] = now
	return true
}

// handleConnect validates the shared password and name uniqueness. Success
// binds the connection, unicasts the accepted reply with the current roster
// and ready set, and announces the player to everyone else. Any failure is
// answered with a one-shot reason and the connection is closed.
func (e *Engine) handleConnect(conn uuid.UUID, msg *protocol.Inbound) {
	if _, bound := e.lobby.NameFor(conn); bound {
		e.closeFatal(conn, "already connected")
		return
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" || len(name) > MaxNameLen {
		e.log.WithField("conn", conn).Warn("malformed connect: bad name")
		e.closeFatal(conn, "invalid player name")
		return
	}

	ok, err := auth.VerifyPassword(msg.Password, e.passwordHash)
	if err != nil || !ok {
		if err != nil {
			e.log.WithError(err).Error("password verification failed")
		}
		e.reject(conn, protocol.ReasonIncorrectPassword)
		return
	}
	if e.game != nil {
		e.reject(conn, protocol.ReasonGameInProgress)
		return
	}
	if err := e.lobby.AddPlayer(name, conn); err != nil {
		e.reject(conn, protocol.ReasonNameTaken)
		return
	}

	e.send(conn, protocol.NewConnectAccepted(e.lobby.Roster(), e.lobby.ReadyNames()))
	e.transport.BroadcastExcept(protocol.NewPlayerConnected(name), conn)
	e.log.WithFields(logrus.Fields{"conn": conn, "player": name}).Info("player connected")
}

func (e *Engine) handleReady(conn uuid.UUID, name string, msg *protocol.Inbound) {
	if msg.IsReady == nil {
		e.send(conn, protocol.NewError("ready requires isReady"))
		return
	}
	if e.game != nil {
		e.send(conn, protocol.NewError("game already in progress"))
		return
	}

	var err error
	if *msg.IsReady {
		err = e.lobby.MarkReady(name)
	} else {
		err = e.lobby.UnmarkReady(name)
	}
	if err != nil {
		e.send(conn, protocol.NewError(err.Error()))
		return
	}
	e.transport.Broadcast(protocol.NewReadyChanged(name, *msg.IsReady))

	// Enough ready players and nobody left waiting: deal the table.
	if e.lobby.CanStart() && e.lobby.AllReady() {
		e.startGame()
	}
}

// startGame seats the current roster in join order. The opening hand is
// private, so game_start goes out as a per-player unicast; the public table
// view follows as a broadcast.
func (e *Engine) startGame() {
	names := e.lobby.Roster()
	g := game.New()
	if err := g.Start(names, e.deckCount); err != nil {
		e.log.WithError(err).Error("failed to start game")
		return
	}
	e.game = g
	e.log.WithField("players", names).Info("game started")

	starting := protocol.CardPayload(g.TopOfDiscard())
	for _, n := range names {
		if c, ok := e.lobby.ConnFor(n); ok {
			e.send(c, protocol.NewGameStart(g.Players(), protocol.CardPayloads(g.HandOf(n)), starting))
		}
	}
	e.transport.Broadcast(e.stateMessage())
}

func (e *Engine) handlePlay(conn uuid.UUID, name string, msg *protocol.Inbound) {
	if e.game == nil {
		e.send(conn, protocol.NewError("no game in progress"))
		return
	}
	if msg.CardIndex == nil {
		e.send(conn, protocol.NewError("play_card requires cardIndex"))
		return
	}
	seat := e.game.PlayerIndex(name)
	if seat < 0 {
		e.send(conn, protocol.NewError("you are not seated in this game"))
		return
	}

	var chosen *models.Color
	if msg.ChosenColor != "" {
		c, err := models.ParseColor(msg.ChosenColor)
		if err != nil {
			e.send(conn, protocol.NewError(err.Error()))
			return
		}
		chosen = &c
	}

	res, err := e.game.PlayCard(seat, *msg.CardIndex, chosen)
	if err != nil {
		e.log.WithFields(logrus.Fields{"player": name, "err": err}).Debug("play rejected")
		e.send(conn, protocol.NewError(err.Error()))
		return
	}
	e.log.WithFields(logrus.Fields{"player": name, "card": res.Card.String()}).Info("card played")

	if res.Finished {
		e.transport.Broadcast(protocol.NewGameEnded(res.Winner, protocol.EndReasonWon))
		e.endGame()
		return
	}
	e.transport.Broadcast(e.stateMessage())
}

func (e *Engine) handleDraw(conn uuid.UUID, name string) {
	if e.game == nil {
		e.send(conn, protocol.NewError("no game in progress"))
		return
	}
	seat := e.game.PlayerIndex(name)
	if seat < 0 {
		e.send(conn, protocol.NewError("you are not seated in this game"))
		return
	}

	res, err := e.game.DrawCards(seat)
	if err != nil {
		e.log.WithFields(logrus.Fields{"player": name, "err": err}).Debug("draw rejected")
		e.send(conn, protocol.NewError(err.Error()))
		return
	}
	e.log.WithFields(logrus.Fields{"player": name, "count": len(res.Cards)}).Info("cards drawn")

	// Concrete card values are private to the drawer; the table sees counts.
	e.send(conn, protocol.NewReceivedCards(protocol.CardPayloads(res.Cards)))
	e.transport.Broadcast(e.stateMessage())
}

func (e *Engine) handleChat(conn uuid.UUID, name string, msg *protocol.Inbound) {
	// The length bound is in characters, not bytes.
	if msg.Text == "" || utf8.RuneCountInString(msg.Text) > protocol.MaxChatLen {
		e.send(conn, protocol.NewError("chat message rejected"))
		return
	}
	e.transport.BroadcastExcept(protocol.NewChat(name, msg.Text), conn)
}

// stateMessage builds the public table view. PendingDraw is the burden on
// the player whose turn it is.
func (e *Engine) stateMessage() protocol.GameState {
	g := e.game
	current := g.Players()[g.CurrentIndex()]
	return protocol.GameState{
		Type:          protocol.TypeGameState,
		DiscardTop:    protocol.CardPayload(g.TopOfDiscard()),
		HandCounts:    g.HandSizes(),
		CurrentPlayer: current,
		Direction:     g.Direction().String(),
		PendingDraw:   g.PendingDraw(current),
		DrawPileSize:  g.DrawPileSize(),
	}
}

// endGame returns the table to the lobby phase. Ready flags are cleared so
// a new round needs fresh consent from everyone.
func (e *Engine) endGame() {
	e.game = nil
	e.lobby.ResetReady()
}

// reject answers a failed connect attempt with its reason, then closes.
func (e *Engine) reject(conn uuid.UUID, reason protocol.RejectReason) {
	e.log.WithFields(logrus.Fields{"conn": conn, "reason": reason}).Info("connect rejected")
	e.send(conn, protocol.NewConnectRejected(reason))
	e.transport.Close(conn)
}

// closeFatal sends a last explanatory notice and closes the connection.
func (e *Engine) closeFatal(conn uuid.UUID, reason string) {
	e.send(conn, protocol.NewError(reason))
	e.transport.Close(conn)
}

func (e *Engine) send(conn uuid.UUID, msg any) {
	if err := e.transport.Send(conn, msg); err != nil {
		e.log.WithError(err).WithField("conn", conn).Debug("unicast failed")
	}
}
