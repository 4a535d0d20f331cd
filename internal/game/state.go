package game

import (
	"fmt"
	"time"

	"github.com/c00lestkats/open-binmat/internal/game/cards"
	"github.com/c00lestkats/open-binmat/internal/game/rng"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
)

// SeatID and Team are shared with the rules package.
type (
	SeatID = rules.SeatID
	Team   = rules.Team
)

const (
	Attacker = rules.Attacker
	Defender = rules.Defender
)

// Status is the lifecycle phase of a game.
type Status string

const (
	StatusLobby     Status = "lobby"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Settings are the per-game rule knobs.
type Settings struct {
	TurnLimit            int             `json:"turn_limit"`
	Ord                  rules.OrderMode `json:"ord"`
	MarkInactiveTurns    int             `json:"mark_inactive_turns"`
	KickOnInactive       bool            `json:"kick_on_inactive"`
	AllowMultipleControl bool            `json:"allow_multiple_control"`
	Seed                 string          `json:"seed"`
}

// DefaultSettings returns the stock rule set.
func DefaultSettings() Settings {
	return Settings{
		TurnLimit:         110,
		Ord:               rules.OrderPlayerIndex,
		MarkInactiveTurns: 2,
	}
}

// Player binds a username to a seat.
type Player struct {
	Username         string `json:"username"`
	Team             Team   `json:"team"`
	Seat             SeatID `json:"seat"`
	ConsecutiveNoOps int    `json:"consecutive_no_ops"`
	Kicked           bool   `json:"kicked"`
}

// Lane is one of the six playing lanes.
type Lane struct {
	AttackerStack cards.CombatStack `json:"attacker_stack"`
	DefenderStack cards.CombatStack `json:"defender_stack"`
	Deck          cards.Pile        `json:"deck"`
	Discard       cards.Pile        `json:"discard"`
}

// Stack returns the combat stack owned by team.
func (l *Lane) Stack(team Team) *cards.CombatStack {
	if team == Attacker {
		return &l.AttackerStack
	}
	return &l.DefenderStack
}

// State holds every zone of the table.
type State struct {
	Lanes           [rules.LaneCount]Lane  `json:"lanes"`
	AttackerDeck    cards.Pile             `json:"attacker_deck"`
	AttackerDiscard cards.Pile             `json:"attacker_discard"`
	Hands           map[SeatID]*cards.Pile `json:"hands"`
}

// piles returns the deck and discard addressed by lane, where lane 6 is the
// attacker deck and discard.
func (s *State) piles(lane int) (deck, discard *cards.Pile) {
	if lane == rules.AttackerLane {
		return &s.AttackerDeck, &s.AttackerDiscard
	}
	return &s.Lanes[lane].Deck, &s.Lanes[lane].Discard
}

// discardOf returns the discard pile that receives cards for team in lane.
func (s *State) discardOf(team Team, lane int) *cards.Pile {
	if team == Attacker {
		return &s.AttackerDiscard
	}
	return &s.Lanes[lane].Discard
}

// AllCards lists every card on the table, in no particular order.
func (s *State) AllCards() []cards.Card {
	out := make([]cards.Card, 0, cards.SetSize)
	for i := range s.Lanes {
		l := &s.Lanes[i]
		out = append(out, l.Deck...)
		out = append(out, l.Discard...)
		out = append(out, l.AttackerStack.Cards...)
		out = append(out, l.DefenderStack.Cards...)
	}
	out = append(out, s.AttackerDeck...)
	out = append(out, s.AttackerDiscard...)
	for _, h := range s.Hands {
		if h != nil {
			out = append(out, *h...)
		}
	}
	return out
}

// Game is the full document of one match.
type Game struct {
	ID         string            `json:"id"`
	Status     Status            `json:"status"`
	Settings   Settings          `json:"settings"`
	Admin      string            `json:"admin"`
	Players    []*Player         `json:"players"`
	State      State             `json:"state"`
	Turn       int               `json:"turn"`
	Seed       rng.State         `json:"seed"`
	QueuedOps  map[SeatID]string `json:"queued_ops"`
	NextOrd    []SeatID          `json:"next_ord"`
	Binlog     []string          `json:"binlog"`
	Winner     Team              `json:"winner,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	LastTurnAt time.Time         `json:"last_turn_at"`

	events *rules.EventBus
}

// New creates a game in the lobby.
func New(id, admin string, settings Settings) *Game {
	return &Game{
		ID:        id,
		Status:    StatusLobby,
		Settings:  settings,
		Admin:     admin,
		Players:   make([]*Player, 0, 2),
		QueuedOps: make(map[SeatID]string),
		CreatedAt: time.Now(),
	}
}

// AttachEvents routes the game's events to bus. A nil bus silences them.
func (g *Game) AttachEvents(bus *rules.EventBus) {
	g.events = bus
}

func (g *Game) emit(evt rules.Event) {
	if g.events == nil {
		return
	}
	evt.GameID = g.ID
	g.events.Publish(evt)
}

func (g *Game) event(t rules.EventType, seat SeatID) rules.Event {
	return rules.NewEvent(t, g.ID, seat, g.Turn)
}

// Player returns the player sitting at seat.
func (g *Game) Player(seat SeatID) (*Player, bool) {
	for _, p := range g.Players {
		if p.Seat == seat {
			return p, true
		}
	}
	return nil, false
}

// ActiveSeats returns the seats of team that have not been kicked, in seating order.
func (g *Game) ActiveSeats(team Team) []SeatID {
	out := make([]SeatID, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Team == team && !p.Kicked {
			out = append(out, p.Seat)
		}
	}
	return out
}

// SeatCount returns how many seats team has, kicked seats included.
func (g *Game) SeatCount(team Team) int {
	n := 0
	for _, p := range g.Players {
		if p.Team == team {
			n++
		}
	}
	return n
}

// AddPlayer seats username on team and returns the new seat id. Seats are
// handed out in order a0, a1, ... while the game is in the lobby.
func (g *Game) AddPlayer(username string, team Team) (SeatID, error) {
	if g.Status != StatusLobby {
		return "", fmt.Errorf("cannot join game %s: %w", g.ID, ErrInvalidState)
	}
	if !team.Valid() {
		return "", fmt.Errorf("unknown team %q", team)
	}
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	if !g.Settings.AllowMultipleControl {
		for _, p := range g.Players {
			if p.Username == username {
				return "", fmt.Errorf("%s already holds seat %s", username, p.Seat)
			}
		}
	}
	n := g.SeatCount(team)
	if n >= rules.MaxSeatsPerTeam {
		return "", fmt.Errorf("%s team: %w", team.Name(), ErrTeamFull)
	}
	seat := rules.NewSeatID(team, n)
	g.Players = append(g.Players, &Player{Username: username, Team: team, Seat: seat})
	return seat, nil
}

// Hand returns the hand of seat.
func (g *Game) Hand(seat SeatID) (*cards.Pile, error) {
	h, ok := g.State.Hands[seat]
	if !ok || h == nil {
		return nil, fmt.Errorf("hand of %s: %w", seat, ErrSeatNotFound)
	}
	return h, nil
}

// Clone returns a deep copy of the game without its event routing.
func (g *Game) Clone() (*Game, error) {
	data, err := Marshal(g)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// EndGame completes the game in favour of winner.
func (g *Game) EndGame(winner Team) {
	if g.Status == StatusCompleted {
		return
	}
	g.Status = StatusCompleted
	g.Winner = winner
	evt := g.event(rules.EventGameOver, "")
	evt.Winner = winner
	g.emit(evt)
}

func (g *Game) random() float64 {
	return g.Seed.Float64()
}
