// internal/models/card.go
package models

import (
	"errors"
	"fmt"
)

// Typed errors for the one-shot card state transitions. The engine relies on
// these to classify a violation as a non-fatal rule breach versus a
// programming error.
var (
	ErrNoDrawEffect   = errors.New("card has no draw effect")
	ErrEffectApplied  = errors.New("draw effect has already been applied")
	ErrColorChosen    = errors.New("wild color has already been chosen")
	ErrColorNotChosen = errors.New("wild color has not been chosen yet")
	ErrNotWild        = errors.New("card is not a wild card")
)

// Color is one of the four playable card colors.
type Color int

const (
	ColorRed Color = iota
	ColorGreen
	ColorBlue
	ColorYellow
)

// Code returns the fixed single-letter display code for the color.
func (c Color) Code() string {
	switch c {
	case ColorRed:
		return "R"
	case ColorGreen:
		return "G"
	case ColorBlue:
		return "B"
	case ColorYellow:
		return "Y"
	default:
		return "?"
	}
}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	default:
		return fmt.Sprintf("invalid_color(%d)", int(c))
	}
}

// Colors lists all four colors in a fixed order, used for deck construction.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// ParseColor maps a wire color string ("red" or "R") back to a Color.
func ParseColor(s string) (Color, error) {
	for _, c := range Colors {
		if s == c.String() || s == c.Code() {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// Kind discriminates the closed set of card variants.
type Kind int

const (
	KindNumbered Kind = iota
	KindDrawTwo
	KindSkip
	KindReverse
	KindWild
	KindWildDrawFour
)

func (k Kind) String() string {
	switch k {
	case KindNumbered:
		return "numbered"
	case KindDrawTwo:
		return "draw_two"
	case KindSkip:
		return "skip"
	case KindReverse:
		return "reverse"
	case KindWild:
		return "wild"
	case KindWildDrawFour:
		return "wild_draw_four"
	default:
		return fmt.Sprintf("invalid_kind(%d)", int(k))
	}
}

// Card is a tagged union over the six UNO card variants. Kind is always set;
// Color is meaningful for the colored kinds, Number only for KindNumbered.
// The one-shot fields (chosen wild color, applied draw effect) transition
// exactly once and are reachable only through their accessor methods.
type Card struct {
	Kind   Kind
	Color  Color
	Number int

	chosenColor Color
	colorChosen bool
	drawApplied bool
}

// NewNumbered builds a numbered card 0-9 in the given color.
func NewNumbered(color Color, number int) *Card {
	return &Card{Kind: KindNumbered, Color: color, Number: number}
}

// NewDrawTwo builds a colored draw-two card.
func NewDrawTwo(color Color) *Card {
	return &Card{Kind: KindDrawTwo, Color: color}
}

// NewSkip builds a colored skip card.
func NewSkip(color Color) *Card {
	return &Card{Kind: KindSkip, Color: color}
}

// NewReverse builds a colored reverse card.
func NewReverse(color Color) *Card {
	return &Card{Kind: KindReverse, Color: color}
}

// NewWild builds a wild card with no chosen color.
func NewWild() *Card {
	return &Card{Kind: KindWild}
}

// NewWildDrawFour builds a wild-draw-four card with no chosen color.
func NewWildDrawFour() *Card {
	return &Card{Kind: KindWildDrawFour}
}

// IsWild reports whether the card is one of the two wild variants.
func (c *Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}

// HasDrawEffect reports whether playing the card burdens the next player.
func (c *Card) HasDrawEffect() bool {
	return c.Kind == KindDrawTwo || c.Kind == KindWildDrawFour
}

// DrawAmount returns the number of cards the draw effect forces (2 or 4),
// or 0 for cards without one.
func (c *Card) DrawAmount() int {
	switch c.Kind {
	case KindDrawTwo:
		return 2
	case KindWildDrawFour:
		return 4
	default:
		return 0
	}
}

// ApplyDrawEffect consumes the card's one-time draw effect and returns its
// amount. The effect transitions unapplied -> applied exactly once; a second
// call returns ErrEffectApplied.
func (c *Card) ApplyDrawEffect() (int, error) {
	if !c.HasDrawEffect() {
		return 0, ErrNoDrawEffect
	}
	if c.drawApplied {
		return 0, ErrEffectApplied
	}
	c.drawApplied = true
	return c.DrawAmount(), nil
}

// ChooseColor resolves a wild card's color. Legal exactly once, after the
// card has been played.
func (c *Card) ChooseColor(color Color) error {
	if !c.IsWild() {
		return ErrNotWild
	}
	if c.colorChosen {
		return ErrColorChosen
	}
	c.chosenColor = color
	c.colorChosen = true
	return nil
}

// ChosenColor returns the resolved color of a played wild card. Reading it
// before ChooseColor is an error.
func (c *Card) ChosenColor() (Color, error) {
	if !c.IsWild() {
		return 0, ErrNotWild
	}
	if !c.colorChosen {
		return 0, ErrColorNotChosen
	}
	return c.chosenColor, nil
}

// EffectiveColor is the color the card shows on the table: its own color for
// colored kinds, the chosen color for wild kinds.
func (c *Card) EffectiveColor() (Color, error) {
	if c.IsWild() {
		return c.ChosenColor()
	}
	return c.Color, nil
}

func (c *Card) String() string {
	switch c.Kind {
	case KindNumbered:
		return fmt.Sprintf("%s%d", c.Color.Code(), c.Number)
	case KindWild, KindWildDrawFour:
		if c.colorChosen {
			return fmt.Sprintf("%s(%s)", c.Kind, c.chosenColor.Code())
		}
		return c.Kind.String()
	default:
		return fmt.Sprintf("%s %s", c.Color.Code(), c.Kind)
	}
}

// IsPlayable reports whether candidate may legally be played on top. It is
// pure and never mutates either card.
//
// Legality mirrors the reference ruleset exactly:
//   - any pairing involving a wild variant is legal,
//   - numbered on numbered matches by number alone (color is ignored, even
//     across colors),
//   - the same action kind on itself is always legal,
//   - any other colored pairing requires the same color.
func IsPlayable(top, candidate *Card) bool {
	if top.IsWild() || candidate.IsWild() {
		return true
	}
	if top.Kind == KindNumbered && candidate.Kind == KindNumbered {
		return top.Number == candidate.Number
	}
	if top.Kind == candidate.Kind {
		return true
	}
	return top.Color == candidate.Color
}
