// internal/game/game.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/unohub/unohub/internal/models"
)

// Typed rule violations. The engine maps all of these to non-fatal replies;
// the offending message is dropped without a state change.
var (
	ErrTooFewPlayers  = errors.New("at least 2 players are required")
	ErrDuplicateName  = errors.New("duplicate player name")
	ErrAlreadyStarted = errors.New("game has already started")
	ErrNotStarted     = errors.New("game has not started")
	ErrGameFinished   = errors.New("game is finished")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrIllegalMove    = errors.New("card is not playable on the discard top")
	ErrBadHandIndex   = errors.New("hand index out of range")
	ErrColorRequired  = errors.New("wild card requires a chosen color")
	ErrUnknownPlayer  = errors.New("player is not seated in this game")
)

// OpeningHandSize is the number of cards dealt to each player at start.
const OpeningHandSize = 7

// Phase tracks the game lifecycle: NotStarted -> InProgress -> Finished.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("invalid_phase(%d)", int(p))
	}
}

// Direction is the turn order around the table.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Game owns the authoritative table state for a single round: draw and
// discard piles, per-player hands, the turn pointer and direction, and the
// accumulated draw burden per player.
//
// Game is not safe for concurrent use; the engine serializes every
// validate -> mutate -> distribute sequence behind one lock (see
// internal/engine).
type Game struct {
	phase       Phase
	players     []string
	hands       map[string][]*models.Card
	drawPile    []*models.Card
	discardPile []*models.Card
	direction   Direction
	current     int
	pendingDraw map[string]int
	winner      string

	rng *rand.Rand
}

// PlayResult reports the outcome of a successful PlayCard.
type PlayResult struct {
	Card     *models.Card
	Finished bool
	Winner   string
}

// DrawResult reports the cards transferred by a successful DrawCards.
type DrawResult struct {
	Cards []*models.Card
}

// New returns an empty game in PhaseNotStarted.
func New() *Game {
	return &Game{
		phase:       PhaseNotStarted,
		hands:       make(map[string][]*models.Card),
		pendingDraw: make(map[string]int),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start builds the draw pile from deckCount decks, deals each player an
// opening hand, and flips a non-wild starting card onto the discard pile.
// The player order is fixed for the round; index 0 moves first.
func (g *Game) Start(playerNames []string, deckCount int) error {
	if g.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	if len(playerNames) < 2 {
		return ErrTooFewPlayers
	}
	seen := make(map[string]bool, len(playerNames))
	for _, name := range playerNames {
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = true
	}

	deck, err := models.BuildDeck(deckCount)
	if err != nil {
		return err
	}
	g.drawPile = deck
	g.players = append([]string(nil), playerNames...)

	for _, name := range g.players {
		hand := make([]*models.Card, 0, OpeningHandSize)
		for i := 0; i < OpeningHandSize; i++ {
			hand = append(hand, g.popDraw())
		}
		g.hands[name] = hand
		g.pendingDraw[name] = 0
	}

	// The starting card must not require an unresolved color choice; wilds
	// drawn here go back under the pile and a replacement is flipped.
	starter := g.popDraw()
	for starter.IsWild() {
		g.drawPile = append(g.drawPile, starter)
		starter = g.popDraw()
	}
	g.discardPile = []*models.Card{starter}

	g.direction = Forward
	g.current = 0
	g.phase = PhaseInProgress
	return nil
}

// PlayCard plays the card at handIndex from the given player's hand onto the
// discard pile and applies its effect. For wild kinds the chosen color must
// be supplied; it is bound to the card exactly once, after the play is
// accepted. Emptying a hand finishes the game immediately.
func (g *Game) PlayCard(playerIndex, handIndex int, chosen *models.Color) (*PlayResult, error) {
	if err := g.checkTurn(playerIndex); err != nil {
		return nil, err
	}
	name := g.players[playerIndex]
	hand := g.hands[name]
	if handIndex < 0 || handIndex >= len(hand) {
		return nil, ErrBadHandIndex
	}
	card := hand[handIndex]
	if card.IsWild() && chosen == nil {
		return nil, ErrColorRequired
	}
	if !models.IsPlayable(g.TopOfDiscard(), card) {
		return nil, ErrIllegalMove
	}

	// Accepted: remove from hand, push to discard, then resolve wild color.
	g.hands[name] = append(hand[:handIndex:handIndex], hand[handIndex+1:]...)
	g.discardPile = append(g.discardPile, card)
	if card.IsWild() {
		if err := card.ChooseColor(*chosen); err != nil {
			return nil, err
		}
	}

	if card.HasDrawEffect() {
		amt, err := card.ApplyDrawEffect()
		if err != nil {
			return nil, err
		}
		// Consecutive stacking: a burdened player who answers with another
		// draw-effect card passes the accumulated burden along with it. The
		// counter only resets to zero once someone actually draws.
		carried := g.pendingDraw[name]
		g.pendingDraw[name] = 0
		g.pendingDraw[g.players[g.peekNext()]] += carried + amt
	}

	res := &PlayResult{Card: card}
	if len(g.hands[name]) == 0 {
		g.phase = PhaseFinished
		g.winner = name
		res.Finished = true
		res.Winner = name
		return res, nil
	}

	switch card.Kind {
	case models.KindReverse:
		g.direction = g.direction.flip()
		g.advanceTurn()
	case models.KindSkip:
		g.advanceTurn()
		g.advanceTurn()
	default:
		g.advanceTurn()
	}
	return res, nil
}

// DrawCards transfers max(1, pending burden) cards from the draw pile to the
// current player's hand, resets the burden, and advances the turn. The draw
// pile is replenished from the discard pile (minus its top card) when it
// runs dry; if both are exhausted the draw stops short.
func (g *Game) DrawCards(playerIndex int) (*DrawResult, error) {
	if err := g.checkTurn(playerIndex); err != nil {
		return nil, err
	}
	name := g.players[playerIndex]
	count := g.pendingDraw[name]
	if count < 1 {
		count = 1
	}

	drawn := make([]*models.Card, 0, count)
	for i := 0; i < count; i++ {
		card := g.popDraw()
		if card == nil {
			break
		}
		drawn = append(drawn, card)
	}
	g.hands[name] = append(g.hands[name], drawn...)
	g.pendingDraw[name] = 0
	g.advanceTurn()
	return &DrawResult{Cards: drawn}, nil
}

// checkTurn validates phase and turn ownership for a move.
func (g *Game) checkTurn(playerIndex int) error {
	switch g.phase {
	case PhaseNotStarted:
		return ErrNotStarted
	case PhaseFinished:
		return ErrGameFinished
	}
	if playerIndex < 0 || playerIndex >= len(g.players) {
		return ErrUnknownPlayer
	}
	if playerIndex != g.current {
		return ErrNotYourTurn
	}
	return nil
}

func (d Direction) flip() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

// advanceTurn moves the turn pointer one seat in the current direction,
// wrapping in both directions.
func (g *Game) advanceTurn() {
	g.current = g.peekNext()
}

// peekNext returns the index of the player one seat ahead in the current
// direction without moving the pointer.
func (g *Game) peekNext() int {
	n := len(g.players)
	if g.direction == Forward {
		return (g.current + 1) % n
	}
	return (g.current - 1 + n) % n
}

// popDraw removes and returns the top draw-pile card, reshuffling the
// discard pile minus its top card back in when the pile is exhausted.
// Returns nil only when no card can be produced at all.
func (g *Game) popDraw() *models.Card {
	if len(g.drawPile) == 0 {
		if len(g.discardPile) <= 1 {
			return nil
		}
		top := g.discardPile[len(g.discardPile)-1]
		reclaimed := g.discardPile[:len(g.discardPile)-1]
		g.discardPile = []*models.Card{top}
		g.drawPile = append(g.drawPile, reclaimed...)
		g.rng.Shuffle(len(g.drawPile), func(i, j int) {
			g.drawPile[i], g.drawPile[j] = g.drawPile[j], g.drawPile[i]
		})
	}
	if len(g.drawPile) == 0 {
		return nil
	}
	card := g.drawPile[0]
	g.drawPile = g.drawPile[1:]
	return card
}

// Phase returns the current lifecycle phase.
func (g *Game) Phase() Phase { return g.phase }

// Players returns the fixed, ordered player list for the round.
func (g *Game) Players() []string {
	return append([]string(nil), g.players...)
}

// PlayerIndex resolves a name to its seat index, or -1.
func (g *Game) PlayerIndex(name string) int {
	for i, p := range g.players {
		if p == name {
			return i
		}
	}
	return -1
}

// CurrentIndex returns the seat index of the player whose turn it is.
func (g *Game) CurrentIndex() int { return g.current }

// Direction returns the current turn direction.
func (g *Game) Direction() Direction { return g.direction }

// Winner returns the winning player's name once the game is finished.
func (g *Game) Winner() string { return g.winner }

// TopOfDiscard returns the most recently played card. The discard pile is
// never empty once the game has started.
func (g *Game) TopOfDiscard() *models.Card {
	if len(g.discardPile) == 0 {
		return nil
	}
	return g.discardPile[len(g.discardPile)-1]
}

// HandOf returns the authoritative hand for a seated player.
func (g *Game) HandOf(name string) []*models.Card {
	return append([]*models.Card(nil), g.hands[name]...)
}

// HandSizes returns the per-player card counts observers are allowed to see.
func (g *Game) HandSizes() map[string]int {
	sizes := make(map[string]int, len(g.players))
	for _, name := range g.players {
		sizes[name] = len(g.hands[name])
	}
	return sizes
}

// PendingDraw returns the accumulated draw burden for a player.
func (g *Game) PendingDraw(name string) int { return g.pendingDraw[name] }

// DrawPileSize returns the number of undealt cards.
func (g *Game) DrawPileSize() int { return len(g.drawPile) }
