package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
)

// Marshal encodes g as the JSON document handed to stores.
func Marshal(g *Game) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode game %s: %w", g.ID, err)
	}
	return data, nil
}

// Unmarshal decodes a game document produced by Marshal.
func Unmarshal(data []byte) (*Game, error) {
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode game: %w", err)
	}
	if err := g.normalize(); err != nil {
		return nil, fmt.Errorf("failed to decode game %s: %w", g.ID, err)
	}
	return &g, nil
}

// normalize restores the empty containers that JSON turns into nil. A dealt
// game must carry a hand for every seated player.
func (g *Game) normalize() error {
	if g.QueuedOps == nil {
		g.QueuedOps = make(map[SeatID]string)
	}
	if g.Players == nil {
		g.Players = []*Player{}
	}
	if g.Status == StatusLobby {
		return nil
	}
	for _, p := range g.Players {
		if g.State.Hands[p.Seat] == nil {
			return invariantf("seat %s has no hand", p.Seat)
		}
	}
	return nil
}

// SerializationChecksum is a deterministic fingerprint of a game.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the canonical rendering
	Timestamp string
	Version   int
}

// Checksum computes the fingerprint of g. Wall-clock fields are left out, so
// two games driven by the same seed and operations hash the same.
func Checksum(g *Game) *SerializationChecksum {
	sum := sha256.Sum256([]byte(canonical(g)))
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(sum[:]),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}
}

// VerifyChecksum reports whether g still matches expected.
func VerifyChecksum(g *Game, expected *SerializationChecksum) bool {
	if expected == nil {
		return false
	}
	return Checksum(g).Hash == expected.Hash
}

func canonical(g *Game) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%s|%d,%d,%d,%d\n",
		g.ID, g.Status, g.Turn, g.Winner, g.Seed[0], g.Seed[1], g.Seed[2], g.Seed[3])
	s := g.Settings
	fmt.Fprintf(&buf, "SETTINGS:%d|%s|%d|%t|%t|%s\n",
		s.TurnLimit, s.Ord, s.MarkInactiveTurns, s.KickOnInactive, s.AllowMultipleControl, s.Seed)

	// seating order matters
	for _, p := range g.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%d|%t\n", p.Seat, p.Username, p.Team, p.ConsecutiveNoOps, p.Kicked)
	}

	// pile order matters, so piles are written bottom to top
	for i := range g.State.Lanes {
		l := &g.State.Lanes[i]
		writePile(&buf, fmt.Sprintf("L%d.DECK", i), l.Deck)
		writePile(&buf, fmt.Sprintf("L%d.DISCARD", i), l.Discard)
		writePile(&buf, fmt.Sprintf("L%d.A%s", i, forced(l.AttackerStack)), l.AttackerStack.Cards)
		writePile(&buf, fmt.Sprintf("L%d.D%s", i, forced(l.DefenderStack)), l.DefenderStack.Cards)
	}
	writePile(&buf, "A.DECK", g.State.AttackerDeck)
	writePile(&buf, "A.DISCARD", g.State.AttackerDiscard)

	seats := make([]string, 0, len(g.State.Hands))
	for seat := range g.State.Hands {
		seats = append(seats, string(seat))
	}
	sort.Strings(seats)
	for _, seat := range seats {
		if h := g.State.Hands[SeatID(seat)]; h != nil {
			writePile(&buf, "HAND."+seat, *h)
		}
	}

	queued := make([]string, 0, len(g.QueuedOps))
	for seat, op := range g.QueuedOps {
		queued = append(queued, fmt.Sprintf("%s=%s", seat, op))
	}
	sort.Strings(queued)
	buf.WriteString("QUEUED:" + strings.Join(queued, ",") + "\n")

	ord := make([]string, len(g.NextOrd))
	for i, seat := range g.NextOrd {
		ord[i] = string(seat)
	}
	buf.WriteString("ORDER:" + strings.Join(ord, ",") + "\n")

	for _, line := range g.Binlog {
		buf.WriteString("LOG:" + line + "\n")
	}
	return buf.String()
}

func forced(s cards.CombatStack) string {
	if s.ForceVisible {
		return "!"
	}
	return ""
}

func writePile(buf *bytes.Buffer, label string, p cards.Pile) {
	ids := make([]string, len(p))
	for i, c := range p {
		ids[i] = c.ID() + ":" + string(c.Visibility)
	}
	buf.WriteString(label + ":" + strings.Join(ids, ",") + "\n")
}
