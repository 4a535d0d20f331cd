// Package cards holds the card model of the game: the 78-card set, card
// identities, visibility, and the ordered piles cards move between.
package cards

import (
	"fmt"
)

// Value is the rank glyph of a card.
type Value byte

// Card values. Numeric values count toward stack power, the rest are specials.
const (
	Two    Value = '2'
	Three  Value = '3'
	Four   Value = '4'
	Five   Value = '5'
	Six    Value = '6'
	Seven  Value = '7'
	Eight  Value = '8'
	Nine   Value = '9'
	Ten    Value = 'a'
	Bounce Value = '?'
	Break  Value = '>'
	Trap   Value = '@'
	Wild   Value = '*'
)

// Values lists every value in dealing order.
var Values = []Value{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Bounce, Break, Trap, Wild}

// Sign is the suit glyph of a card.
type Sign byte

// Card signs.
const (
	SignCaret   Sign = '^'
	SignPlus    Sign = '+'
	SignPercent Sign = '%'
	SignAmp     Sign = '&'
	SignBang    Sign = '!'
	SignHash    Sign = '#'
)

// Signs lists every sign in dealing order.
var Signs = []Sign{SignCaret, SignPlus, SignPercent, SignAmp, SignBang, SignHash}

// SetSize is the number of cards in play.
const SetSize = 78

// ParseValue reports whether b is a card value.
func ParseValue(b byte) (Value, bool) {
	for _, v := range Values {
		if byte(v) == b {
			return v, true
		}
	}
	return 0, false
}

// ParseSign reports whether b is a card sign.
func ParseSign(b byte) (Sign, bool) {
	for _, s := range Signs {
		if byte(s) == b {
			return s, true
		}
	}
	return 0, false
}

// Numeric returns the face value of a number card ('a' counts 10).
func (v Value) Numeric() (int, bool) {
	switch {
	case v >= Two && v <= Nine:
		return int(v - '0'), true
	case v == Ten:
		return 10, true
	}
	return 0, false
}

func (v Value) String() string { return string(rune(v)) }

// MarshalText encodes the value as its glyph.
func (v Value) MarshalText() ([]byte, error) { return []byte{byte(v)}, nil }

// UnmarshalText decodes a value glyph.
func (v *Value) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("invalid card value %q", text)
	}
	parsed, ok := ParseValue(text[0])
	if !ok {
		return fmt.Errorf("invalid card value %q", text)
	}
	*v = parsed
	return nil
}

func (s Sign) String() string { return string(rune(s)) }

// MarshalText encodes the sign as its glyph.
func (s Sign) MarshalText() ([]byte, error) { return []byte{byte(s)}, nil }

// UnmarshalText decodes a sign glyph.
func (s *Sign) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("invalid card sign %q", text)
	}
	parsed, ok := ParseSign(text[0])
	if !ok {
		return fmt.Errorf("invalid card sign %q", text)
	}
	*s = parsed
	return nil
}

// Visibility says who may see a card's face.
type Visibility string

const (
	VisibleAttacker Visibility = "attacker"
	VisibleDefender Visibility = "defender"
	Hidden          Visibility = "hidden"
	VisibleEveryone Visibility = "everyone"
)

// Card is a single card. Value and Sign never change once dealt.
type Card struct {
	Value      Value      `json:"value"`
	Sign       Sign       `json:"sign"`
	Visibility Visibility `json:"visibility"`
}

// ID returns the card identity, e.g. "a^" or "@#".
func (c Card) ID() string {
	return string([]byte{byte(c.Value), byte(c.Sign)})
}

func (c Card) String() string { return c.ID() }

// Up reports whether the card is face up for everyone.
func (c Card) Up() bool { return c.Visibility == VisibleEveryone }

// ParseID parses a two-character card identity into a hidden card.
func ParseID(id string) (Card, error) {
	if len(id) != 2 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	v, ok := ParseValue(id[0])
	if !ok {
		return Card{}, fmt.Errorf("invalid card value in %q", id)
	}
	s, ok := ParseSign(id[1])
	if !ok {
		return Card{}, fmt.Errorf("invalid card sign in %q", id)
	}
	return Card{Value: v, Sign: s, Visibility: Hidden}, nil
}

// FullSet returns the 78 cards, value-major and sign-minor, all hidden.
func FullSet() []Card {
	set := make([]Card, 0, SetSize)
	for _, v := range Values {
		for _, s := range Signs {
			set = append(set, Card{Value: v, Sign: s, Visibility: Hidden})
		}
	}
	return set
}
