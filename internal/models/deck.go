// internal/models/deck.go
package models

import (
	"errors"
	"math/rand"
	"time"
)

// ErrBadDeckCount indicates a non-positive deck count was requested.
var ErrBadDeckCount = errors.New("deck count must be positive")

// CardsPerDeck is the size of one standard UNO deck.
const CardsPerDeck = 108

// BuildDeck materializes deckCount standard 108-card UNO decks as a single
// shuffled draw pile. Per deck and color: one 0, two each of 1-9, two each
// of draw-two/skip/reverse; plus four wilds and four wild-draw-fours.
func BuildDeck(deckCount int) ([]*Card, error) {
	if deckCount <= 0 {
		return nil, ErrBadDeckCount
	}

	deck := make([]*Card, 0, deckCount*CardsPerDeck)
	for d := 0; d < deckCount; d++ {
		for _, color := range Colors {
			deck = append(deck, NewNumbered(color, 0))
			for n := 1; n <= 9; n++ {
				deck = append(deck, NewNumbered(color, n), NewNumbered(color, n))
			}
			deck = append(deck,
				NewDrawTwo(color), NewDrawTwo(color),
				NewSkip(color), NewSkip(color),
				NewReverse(color), NewReverse(color),
			)
		}
		for i := 0; i < 4; i++ {
			deck = append(deck, NewWild(), NewWildDrawFour())
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}
