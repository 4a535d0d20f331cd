package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
)

// ErrInvalidSyntax is returned for operation codes that do not parse.
var ErrInvalidSyntax = errors.New("invalid operation syntax")

// OpKind is the verb of an operation.
type OpKind byte

const (
	OpDraw    OpKind = 'd'
	OpDiscard OpKind = 'x'
	OpCombat  OpKind = 'c'
	OpPlay    OpKind = 'p'
)

func (k OpKind) String() string {
	switch k {
	case OpDraw:
		return "draw"
	case OpDiscard:
		return "discard"
	case OpCombat:
		return "combat"
	case OpPlay:
		return "play"
	}
	return fmt.Sprintf("op(%c)", byte(k))
}

// Lanes on the table. AttackerLane addresses the attacker deck and discard.
const (
	LaneCount    = 6
	AttackerLane = 6
)

// OpenLane reports whether the lane shows its top deck card to everyone.
func OpenLane(lane int) bool { return lane >= 3 && lane < LaneCount }

// Op is a parsed operation. Value, Sign and HasSign are set for discards and
// plays; FaceUp only for plays.
type Op struct {
	Kind    OpKind
	Lane    int
	Value   cards.Value
	Sign    cards.Sign
	HasSign bool
	FaceUp  bool
}

// Parse decodes an operation code:
//
//	d<lane|a>             draw
//	x<value>[sign]<lane|a> discard
//	c<lane>               combat
//	p|u<value>[sign]<lane> play face-down / face-up
func Parse(code string) (Op, error) {
	if code == "" {
		return Op{}, fmt.Errorf("empty operation: %w", ErrInvalidSyntax)
	}

	switch code[0] {
	case 'd':
		if len(code) != 2 {
			return Op{}, syntaxError(code)
		}
		lane, ok := parseLane(code[1], true)
		if !ok {
			return Op{}, syntaxError(code)
		}
		return Op{Kind: OpDraw, Lane: lane}, nil

	case 'c':
		if len(code) != 2 {
			return Op{}, syntaxError(code)
		}
		lane, ok := parseLane(code[1], false)
		if !ok {
			return Op{}, syntaxError(code)
		}
		return Op{Kind: OpCombat, Lane: lane}, nil

	case 'x', 'p', 'u':
		if len(code) < 3 || len(code) > 4 {
			return Op{}, syntaxError(code)
		}
		op := Op{Kind: OpPlay, FaceUp: code[0] == 'u'}
		if code[0] == 'x' {
			op.Kind = OpDiscard
		}

		value, ok := cards.ParseValue(code[1])
		if !ok {
			return Op{}, syntaxError(code)
		}
		op.Value = value

		pos := 2
		if sign, ok := cards.ParseSign(code[pos]); ok {
			op.Sign = sign
			op.HasSign = true
			pos++
		}
		if pos != len(code)-1 {
			return Op{}, syntaxError(code)
		}
		lane, ok := parseLane(code[pos], op.Kind == OpDiscard)
		if !ok {
			return Op{}, syntaxError(code)
		}
		op.Lane = lane
		return op, nil
	}

	return Op{}, syntaxError(code)
}

// Valid reports whether code parses.
func Valid(code string) bool {
	_, err := Parse(code)
	return err == nil
}

// String re-encodes the canonical operation code.
func (op Op) String() string {
	var b strings.Builder
	switch op.Kind {
	case OpPlay:
		if op.FaceUp {
			b.WriteByte('u')
		} else {
			b.WriteByte('p')
		}
	default:
		b.WriteByte(byte(op.Kind))
	}
	if op.Kind == OpDiscard || op.Kind == OpPlay {
		b.WriteByte(byte(op.Value))
		if op.HasSign {
			b.WriteByte(byte(op.Sign))
		}
	}
	if op.Lane == AttackerLane {
		b.WriteByte('a')
	} else {
		b.WriteByte(byte('0' + op.Lane))
	}
	return b.String()
}

func parseLane(c byte, allowAttacker bool) (int, bool) {
	if c >= '0' && c <= '5' {
		return int(c - '0'), true
	}
	if c == 'a' && allowAttacker {
		return AttackerLane, true
	}
	return 0, false
}

func syntaxError(code string) error {
	return fmt.Errorf("%q: %w", code, ErrInvalidSyntax)
}
