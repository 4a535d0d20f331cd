package cards

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyPile is returned when taking from a pile with no cards.
	ErrEmptyPile = errors.New("pile is empty")
	// ErrCardNotFound is returned when no card in a pile matches a lookup.
	ErrCardNotFound = errors.New("card not found")
	// ErrAmbiguousCard is returned when a value-only lookup matches several cards.
	ErrAmbiguousCard = errors.New("card lookup is ambiguous")
)

// Pile is an ordered run of cards. The top of the pile is the last element.
type Pile []Card

// Len returns the number of cards in the pile.
func (p *Pile) Len() int { return len(*p) }

// Push places cards on top, in order.
func (p *Pile) Push(cs ...Card) {
	*p = append(*p, cs...)
}

// Pop removes and returns the top card.
func (p *Pile) Pop() (Card, error) {
	n := len(*p)
	if n == 0 {
		return Card{}, ErrEmptyPile
	}
	c := (*p)[n-1]
	*p = (*p)[:n-1]
	return c, nil
}

// Top returns the top card without removing it.
func (p *Pile) Top() (Card, bool) {
	n := len(*p)
	if n == 0 {
		return Card{}, false
	}
	return (*p)[n-1], true
}

// RemoveAt removes the card at index i, keeping the order of the rest.
func (p *Pile) RemoveAt(i int) (Card, error) {
	if i < 0 || i >= len(*p) {
		return Card{}, fmt.Errorf("index %d out of range for pile of %d: %w", i, len(*p), ErrCardNotFound)
	}
	c := (*p)[i]
	*p = append((*p)[:i], (*p)[i+1:]...)
	return c, nil
}

// TakeAll empties the pile and returns its cards bottom to top.
func (p *Pile) TakeAll() []Card {
	out := make([]Card, len(*p))
	copy(out, *p)
	*p = (*p)[:0]
	return out
}

// SetVisibility sets the visibility of every card in the pile.
func (p *Pile) SetVisibility(v Visibility) {
	for i := range *p {
		(*p)[i].Visibility = v
	}
}

// SetTopVisibility sets the visibility of the top card, if any.
func (p *Pile) SetTopVisibility(v Visibility) bool {
	n := len(*p)
	if n == 0 {
		return false
	}
	(*p)[n-1].Visibility = v
	return true
}

// Count returns how many cards of the given value are in the pile.
func (p *Pile) Count(v Value) int {
	n := 0
	for _, c := range *p {
		if c.Value == v {
			n++
		}
	}
	return n
}

// Contains reports whether the pile holds at least one card of the given value.
func (p *Pile) Contains(v Value) bool {
	return p.Count(v) > 0
}

// Find locates a card by value and, when hasSign is set, by sign. A value-only
// lookup must match exactly one card.
func (p *Pile) Find(v Value, s Sign, hasSign bool) (int, error) {
	found := -1
	for i, c := range *p {
		if c.Value != v {
			continue
		}
		if hasSign {
			if c.Sign == s {
				return i, nil
			}
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("value %s: %w", v, ErrAmbiguousCard)
		}
		found = i
	}
	if found < 0 {
		if hasSign {
			return -1, fmt.Errorf("card %s%s: %w", v, s, ErrCardNotFound)
		}
		return -1, fmt.Errorf("value %s: %w", v, ErrCardNotFound)
	}
	return found, nil
}

// IDs returns the card identities bottom to top.
func (p *Pile) IDs() []string {
	out := make([]string, len(*p))
	for i, c := range *p {
		out[i] = c.ID()
	}
	return out
}

// CombatStack is a team's face-down/face-up stack in a lane. ForceVisible is set
// once a combat has revealed the stack to everyone.
type CombatStack struct {
	Cards        Pile `json:"cards"`
	ForceVisible bool `json:"force_visible"`
}

// MarshalJSON encodes an empty pile as [] rather than null.
func (p Pile) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Card(p))
}
