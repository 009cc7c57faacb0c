// internal/protocol/protocol.go
package protocol

import (
	"github.com/unohub/unohub/internal/models"
)

// Type discriminates every message on the wire via the "type" field.
type Type string

// Client -> server messages.
const (
	TypeConnect   Type = "connect"
	TypeReady     Type = "ready"
	TypePlayCard  Type = "play_card"
	TypeDrawCards Type = "draw_cards"
	TypeChat      Type = "chat"
)

// Server -> client messages.
const (
	TypeConnectAccepted    Type = "connect_accepted"
	TypeConnectRejected    Type = "connect_rejected"
	TypePlayerConnected    Type = "player_connected"
	TypePlayerDisconnected Type = "player_disconnected"
	TypeReadyChanged       Type = "ready_changed"
	TypeGameStart          Type = "game_start"
	TypeGameState          Type = "game_state"
	TypeReceivedCards      Type = "received_cards"
	TypeGameEnded          Type = "game_ended"
	TypeError              Type = "error"
)

// MaxChatLen bounds chat message length in characters.
const MaxChatLen = 300

// RejectReason explains a refused connect handshake.
type RejectReason string

const (
	ReasonIncorrectPassword RejectReason = "incorrect_password"
	ReasonNameTaken         RejectReason = "name_taken"
	ReasonGameInProgress    RejectReason = "game_in_progress"
)

// EndReason explains why a game ended.
type EndReason string

const (
	EndReasonWon       EndReason = "won"
	EndReasonAbandoned EndReason = "abandoned"
)

// Inbound is the flattened envelope for every client message. Fields beyond
// Type are populated per message type; unused fields stay zero.
type Inbound struct {
	Type Type `json:"type"`

	// connect
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`

	// ready
	IsReady *bool `json:"isReady,omitempty"`

	// play_card
	CardIndex   *int   `json:"cardIndex,omitempty"`
	ChosenColor string `json:"chosenColor,omitempty"`

	// chat (Name doubles as the claimed sender)
	Text string `json:"text,omitempty"`
}

// Card is the wire form of a card. Color is the effective color: the card's
// own for colored kinds, the chosen color for resolved wilds, empty for a
// wild still in hand.
type Card struct {
	Kind   string `json:"kind"`
	Color  string `json:"color,omitempty"`
	Number *int   `json:"number,omitempty"`
}

// CardPayload converts an authoritative card to its wire form.
func CardPayload(c *models.Card) Card {
	wire := Card{Kind: c.Kind.String()}
	if color, err := c.EffectiveColor(); err == nil {
		wire.Color = color.String()
	}
	if c.Kind == models.KindNumbered {
		n := c.Number
		wire.Number = &n
	}
	return wire
}

// CardPayloads converts a slice of cards.
func CardPayloads(cards []*models.Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = CardPayload(c)
	}
	return out
}

type ConnectAccepted struct {
	Type   Type     `json:"type"`
	Roster []string `json:"roster"`
	Ready  []string `json:"ready"`
}

func NewConnectAccepted(roster, ready []string) ConnectAccepted {
	return ConnectAccepted{Type: TypeConnectAccepted, Roster: roster, Ready: ready}
}

type ConnectRejected struct {
	Type   Type         `json:"type"`
	Reason RejectReason `json:"reason"`
}

func NewConnectRejected(reason RejectReason) ConnectRejected {
	return ConnectRejected{Type: TypeConnectRejected, Reason: reason}
}

type PlayerConnected struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
}

func NewPlayerConnected(name string) PlayerConnected {
	return PlayerConnected{Type: TypePlayerConnected, Name: name}
}

type PlayerDisconnected struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
}

func NewPlayerDisconnected(name string) PlayerDisconnected {
	return PlayerDisconnected{Type: TypePlayerDisconnected, Name: name}
}

type ReadyChanged struct {
	Type    Type   `json:"type"`
	Name    string `json:"name"`
	IsReady bool   `json:"isReady"`
}

func NewReadyChanged(name string, isReady bool) ReadyChanged {
	return ReadyChanged{Type: TypeReadyChanged, Name: name, IsReady: isReady}
}

type Chat struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

func NewChat(name, text string) Chat {
	return Chat{Type: TypeChat, Name: name, Text: text}
}

// GameStart is unicast per player: Hand is private to the recipient.
type GameStart struct {
	Type         Type     `json:"type"`
	Players      []string `json:"players"`
	Hand         []Card   `json:"hand"`
	StartingCard Card     `json:"startingCard"`
}

func NewGameStart(players []string, hand []Card, starting Card) GameStart {
	return GameStart{Type: TypeGameStart, Players: players, Hand: hand, StartingCard: starting}
}

// GameState is the public table view broadcast after every accepted move.
type GameState struct {
	Type          Type           `json:"type"`
	DiscardTop    Card           `json:"discardTop"`
	HandCounts    map[string]int `json:"handCounts"`
	CurrentPlayer string         `json:"currentPlayer"`
	Direction     string         `json:"direction"`
	PendingDraw   int            `json:"pendingDraw,omitempty"`
	DrawPileSize  int            `json:"drawPileSize"`
}

// ReceivedCards is unicast to the drawing player with concrete card values.
type ReceivedCards struct {
	Type  Type   `json:"type"`
	Cards []Card `json:"cards"`
}

func NewReceivedCards(cards []Card) ReceivedCards {
	return ReceivedCards{Type: TypeReceivedCards, Cards: cards}
}

type GameEnded struct {
	Type   Type      `json:"type"`
	Winner string    `json:"winner,omitempty"`
	Reason EndReason `json:"reason"`
}

func NewGameEnded(winner string, reason EndReason) GameEnded {
	return GameEnded{Type: TypeGameEnded, Winner: winner, Reason: reason}
}

// Error is a private, non-fatal notice to the offending sender.
type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
