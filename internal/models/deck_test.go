// internal/models/deck_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckRejectsBadCount(t *testing.T) {
	for _, n := range []int{0, -1, -108} {
		_, err := BuildDeck(n)
		assert.ErrorIs(t, err, ErrBadDeckCount, "deck count %d", n)
	}
}

func TestBuildDeckComposition(t *testing.T) {
	for _, n := range []int{1, 2} {
		deck, err := BuildDeck(n)
		require.NoError(t, err)
		require.Len(t, deck, n*CardsPerDeck)

		numbered := map[Color]map[int]int{}
		actions := map[Color]map[Kind]int{}
		wilds := map[Kind]int{}
		for _, color := range Colors {
			numbered[color] = map[int]int{}
			actions[color] = map[Kind]int{}
		}

		for _, c := range deck {
			switch c.Kind {
			case KindNumbered:
				numbered[c.Color][c.Number]++
			case KindDrawTwo, KindSkip, KindReverse:
				actions[c.Color][c.Kind]++
			case KindWild, KindWildDrawFour:
				wilds[c.Kind]++
			}
		}

		for _, color := range Colors {
			assert.Equal(t, n, numbered[color][0], "%d deck(s): one 0 per color %s", n, color)
			for num := 1; num <= 9; num++ {
				assert.Equal(t, 2*n, numbered[color][num], "%d deck(s): two %d per color %s", n, num, color)
			}
			for _, kind := range []Kind{KindDrawTwo, KindSkip, KindReverse} {
				assert.Equal(t, 2*n, actions[color][kind], "%d deck(s): two %s per color %s", n, kind, color)
			}
		}
		assert.Equal(t, 4*n, wilds[KindWild])
		assert.Equal(t, 4*n, wilds[KindWildDrawFour])
	}
}

func TestBuildDeckCardsStartUnresolved(t *testing.T) {
	deck, err := BuildDeck(1)
	require.NoError(t, err)
	for _, c := range deck {
		if c.IsWild() {
			_, err := c.ChosenColor()
			assert.ErrorIs(t, err, ErrColorNotChosen)
		}
		if c.HasDrawEffect() {
			// The one-shot effect must be fresh off the deck.
			amt, err := c.ApplyDrawEffect()
			require.NoError(t, err)
			assert.Equal(t, c.DrawAmount(), amt)
		}
	}
}
