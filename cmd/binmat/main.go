package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/c00lestkats/open-binmat/internal/config"
	"github.com/c00lestkats/open-binmat/internal/game"
	"github.com/c00lestkats/open-binmat/internal/game/rules"
	"github.com/c00lestkats/open-binmat/internal/game/watchers"
	"github.com/c00lestkats/open-binmat/internal/logging"
	"github.com/c00lestkats/open-binmat/internal/store"
)

const admin = "admin"

var (
	configPath = flag.String("config", "", "path to configuration file")
	seed       = flag.String("seed", "", "world seed (random when empty)")
	attackers  = flag.Int("attackers", 1, "number of attacker seats")
	defenders  = flag.Int("defenders", 1, "number of defender seats")
	scriptPath = flag.String("script", "-", "operation script, one \"<seat> <op>\" per line; - reads stdin")
	viewSeat   = flag.String("view", "", "seat whose view is printed at the end (spectator when empty)")
	replayID   = flag.String("replay", "", "print the saved replay of this game id and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayID != "" {
		if err := printReplay(cfg.Replay.Dir, *replayID, os.Stdout); err != nil {
			logger.Fatal("failed to read replay", zap.String("game_id", *replayID), zap.Error(err))
		}
		return
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.Close()

	engine := game.NewEngine(st, cfg.GameSettings(), logger)
	if cfg.Replay.Enabled {
		engine.SetReplayRecorder(game.NewReplayRecorder(logger, cfg.Replay.Dir))
	}

	script, err := openScript(*scriptPath)
	if err != nil {
		logger.Fatal("failed to open script", zap.String("script", *scriptPath), zap.Error(err))
	}
	defer script.Close()

	opts := options{seed: *seed, attackers: *attackers, defenders: *defenders, view: game.SeatID(*viewSeat)}
	if err := run(ctx, engine, logger, opts, script, os.Stdout); err != nil {
		logger.Fatal("game aborted", zap.Error(err))
	}
}

func openScript(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type options struct {
	seed      string
	attackers int
	defenders int
	view      game.SeatID
}

// run plays one game: it seats the players, deals, feeds the script to the
// engine and prints the final view with a short statistics summary.
func run(ctx context.Context, engine *game.Engine, logger *zap.Logger, opts options, script io.Reader, out io.Writer) error {
	settings := engine.Defaults()
	if opts.seed != "" {
		settings.Seed = opts.seed
	}
	g, err := engine.Create(ctx, admin, &settings)
	if err != nil {
		return err
	}

	registry := rules.NewWatcherRegistry()
	drawn := watchers.NewCardsDrawnWatcher(g.ID)
	combat := watchers.NewCombatWatcher(g.ID)
	registry.AddWatcher(drawn)
	registry.AddWatcher(combat)
	defer engine.Events().Unsubscribe(registry.Attach(engine.Events()))

	var seats []game.SeatID
	for _, team := range []struct {
		team  game.Team
		count int
	}{{game.Attacker, opts.attackers}, {game.Defender, opts.defenders}} {
		for i := 0; i < team.count; i++ {
			seat, err := engine.Join(ctx, g.ID, fmt.Sprintf("%s-%d", team.team.Name(), i), team.team)
			if err != nil {
				return err
			}
			seats = append(seats, seat)
			registry.AddWatcher(watchers.NewInactivityWatcher(g.ID, seat))
		}
	}

	if g, err = engine.Start(ctx, g.ID, admin); err != nil {
		return err
	}

	if err := feed(ctx, engine, logger, g.ID, script); err != nil {
		return err
	}

	view, err := engine.View(ctx, g.ID, opts.view)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("encode view: %w", err)
	}

	fields := []zap.Field{
		zap.String("game_id", g.ID),
		zap.String("status", string(view.Status)),
		zap.Int("combats_won", combat.Count(game.OutcomeAttacker)),
		zap.Int("combats_lost", combat.Count(game.OutcomeDefender)),
		zap.Int("damage", combat.Damage()),
	}
	for _, seat := range seats {
		fields = append(fields, zap.Int("drawn_"+string(seat), drawn.Drawn(seat)))
		if w, ok := registry.GetWatcher(string(seat) + "/InactivityWatcher").(*watchers.InactivityWatcher); ok && w.NoOps() > 0 {
			fields = append(fields, zap.Int("no_ops_"+string(seat), w.NoOps()))
		}
	}
	logger.Info("game summary", fields...)
	return nil
}

// feed submits the script line by line. Blank lines and lines starting with
// # are skipped; a line reading "force" runs the current turn as it stands.
func feed(ctx context.Context, engine *game.Engine, logger *zap.Logger, id string, script io.Reader) error {
	scanner := bufio.NewScanner(script)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if text == "force" {
			if _, err := engine.ForceTurn(ctx, id); err != nil && !errors.Is(err, game.ErrNotOngoing) {
				return fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			logger.Warn("skipping malformed script line", zap.Int("line", line), zap.String("text", text))
			continue
		}
		_, err := engine.Submit(ctx, id, game.SeatID(fields[0]), fields[1])
		switch {
		case err == nil:
		case errors.Is(err, game.ErrRejected):
			logger.Warn("operation rejected",
				zap.Int("line", line),
				zap.String("seat", fields[0]),
				zap.String("op", fields[1]),
				zap.Error(err),
			)
		default:
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

func printReplay(dir, id string, out io.Writer) error {
	replay, err := game.LoadReplayFromFile(dir, id)
	if err != nil {
		return err
	}
	replay.Start()
	for s := replay.Next(); s != nil; s = replay.Next() {
		g, err := s.Game()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "turn %3d  %-9s  %s\n", s.Turn, s.Status, s.Checksum)
		if g.Status == game.StatusCompleted {
			fmt.Fprintf(out, "winner: %s\n", g.Winner.Name())
		}
	}
	return nil
}
