// internal/models/card_test.go
package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawEffectAppliesOnce(t *testing.T) {
	for _, c := range []*Card{NewDrawTwo(ColorRed), NewWildDrawFour()} {
		amt, err := c.ApplyDrawEffect()
		require.NoError(t, err, "first apply should succeed for %s", c.Kind)
		assert.Equal(t, c.DrawAmount(), amt)

		_, err = c.ApplyDrawEffect()
		assert.ErrorIs(t, err, ErrEffectApplied, "second apply must fail for %s", c.Kind)
	}

	_, err := NewSkip(ColorBlue).ApplyDrawEffect()
	assert.ErrorIs(t, err, ErrNoDrawEffect)
}

func TestWildColorChosenOnce(t *testing.T) {
	w := NewWild()

	_, err := w.ChosenColor()
	assert.ErrorIs(t, err, ErrColorNotChosen, "reading the color before choosing must fail")

	require.NoError(t, w.ChooseColor(ColorGreen))
	got, err := w.ChosenColor()
	require.NoError(t, err)
	assert.Equal(t, ColorGreen, got)

	assert.ErrorIs(t, w.ChooseColor(ColorRed), ErrColorChosen)

	assert.ErrorIs(t, NewNumbered(ColorRed, 3).ChooseColor(ColorRed), ErrNotWild)
}

func TestEffectiveColor(t *testing.T) {
	c, err := NewReverse(ColorYellow).EffectiveColor()
	require.NoError(t, err)
	assert.Equal(t, ColorYellow, c)

	w := NewWildDrawFour()
	_, err = w.EffectiveColor()
	assert.ErrorIs(t, err, ErrColorNotChosen)

	require.NoError(t, w.ChooseColor(ColorBlue))
	c, err = w.EffectiveColor()
	require.NoError(t, err)
	assert.Equal(t, ColorBlue, c)
}

func TestIsPlayableNumberedMatchesAcrossColors(t *testing.T) {
	// Numbered-on-numbered matches by number only, colors are ignored.
	for _, topColor := range Colors {
		for _, candColor := range Colors {
			top := NewNumbered(topColor, 5)
			assert.True(t, IsPlayable(top, NewNumbered(candColor, 5)),
				"5 on 5 should be playable for %s on %s", candColor, topColor)
		}
	}
	assert.False(t, IsPlayable(NewNumbered(ColorRed, 5), NewNumbered(ColorGreen, 6)),
		"different number and color must not be playable")
	// Same color but different number is still illegal under the
	// number-only rule.
	assert.False(t, IsPlayable(NewNumbered(ColorRed, 5), NewNumbered(ColorRed, 6)))
}

func TestIsPlayableActionKinds(t *testing.T) {
	cases := []struct {
		top, cand *Card
		want      bool
		why       string
	}{
		{NewSkip(ColorRed), NewSkip(ColorBlue), true, "skip on skip regardless of color"},
		{NewDrawTwo(ColorGreen), NewDrawTwo(ColorYellow), true, "draw-two on draw-two regardless of color"},
		{NewReverse(ColorBlue), NewReverse(ColorRed), true, "reverse on reverse regardless of color"},
		{NewSkip(ColorRed), NewReverse(ColorRed), true, "same color, different action"},
		{NewSkip(ColorRed), NewReverse(ColorBlue), false, "different color and kind"},
		{NewNumbered(ColorRed, 7), NewSkip(ColorRed), true, "action matching top color"},
		{NewNumbered(ColorRed, 7), NewSkip(ColorBlue), false, "action not matching top color"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsPlayable(tc.top, tc.cand), tc.why)
	}
}

func TestIsPlayableWilds(t *testing.T) {
	tops := []*Card{NewNumbered(ColorRed, 1), NewSkip(ColorGreen), NewWild()}
	for _, top := range tops {
		assert.True(t, IsPlayable(top, NewWild()))
		assert.True(t, IsPlayable(top, NewWildDrawFour()))
	}
	// Anything is legal on a wild top.
	w := NewWild()
	require.NoError(t, w.ChooseColor(ColorRed))
	assert.True(t, IsPlayable(w, NewNumbered(ColorBlue, 9)))
	assert.True(t, IsPlayable(NewWildDrawFour(), NewReverse(ColorYellow)))
}

func TestIsPlayableNeverMutates(t *testing.T) {
	top := NewWild()
	cand := NewDrawTwo(ColorRed)
	IsPlayable(top, cand)
	_, err := top.ChosenColor()
	assert.ErrorIs(t, err, ErrColorNotChosen)
	amt, err := cand.ApplyDrawEffect()
	require.NoError(t, err)
	assert.Equal(t, 2, amt)
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "R7", NewNumbered(ColorRed, 7).String())
	assert.Equal(t, "wild", NewWild().String())
	w := NewWildDrawFour()
	require.NoError(t, w.ChooseColor(ColorBlue))
	assert.Equal(t, "wild_draw_four(B)", w.String())
}

func TestParseColor(t *testing.T) {
	for _, c := range Colors {
		got, err := ParseColor(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
		got, err = ParseColor(c.Code())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseColor("purple")
	assert.Error(t, err)
}

func ExampleCard_String() {
	fmt.Println(NewNumbered(ColorGreen, 0))
	// Output: G0
}
