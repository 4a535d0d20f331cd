package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayVersion = 1

// Snapshot is one recorded game document, taken after init or after a turn.
type Snapshot struct {
	Turn     int
	Status   Status
	Checksum string
	Document []byte
}

// NewSnapshot captures the current document of g.
func NewSnapshot(g *Game) (*Snapshot, error) {
	doc, err := Marshal(g)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Turn:     g.Turn,
		Status:   g.Status,
		Checksum: Checksum(g).Hash,
		Document: doc,
	}, nil
}

// Game decodes the snapshot back into a game and checks its fingerprint.
func (s *Snapshot) Game() (*Game, error) {
	g, err := Unmarshal(s.Document)
	if err != nil {
		return nil, err
	}
	if got := Checksum(g).Hash; got != s.Checksum {
		return nil, fmt.Errorf("snapshot of turn %d: checksum %s, want %s: %w", s.Turn, got, s.Checksum, ErrInvalidState)
	}
	return g, nil
}

// Replay is the ordered list of snapshots of one game with a playback cursor.
type Replay struct {
	GameID       string
	Snapshots    []*Snapshot
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID:    gameID,
		Snapshots: make([]*Snapshot, 0),
	}
}

// Record appends a snapshot.
func (r *Replay) Record(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Snapshots = append(r.Snapshots, s)
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the snapshot under the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Snapshots) {
		s := r.Snapshots[r.CurrentIndex]
		r.CurrentIndex++
		return s
	}
	return nil
}

// Previous steps the cursor back and returns that snapshot.
func (r *Replay) Previous() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Snapshots[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor by count, clamped to the recorded range.
func (r *Replay) Skip(count int) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := min(r.CurrentIndex+count, len(r.Snapshots)-1)
	r.CurrentIndex = max(idx, 0)
	if r.CurrentIndex < len(r.Snapshots) {
		return r.Snapshots[r.CurrentIndex]
	}
	return nil
}

// Size returns the number of snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Snapshots)
}

// At returns the snapshot at index, or nil.
func (r *Replay) At(index int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Snapshots) {
		return r.Snapshots[index]
	}
	return nil
}

type replayMetadata struct {
	GameID        string
	Timestamp     time.Time
	Version       int
	SnapshotCount int
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

// SaveToFile writes the replay as <dir>/<game id>.replay: a gzip stream of
// gob records, metadata first.
func (r *Replay) SaveToFile(directory string) (err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(replayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)

	meta := replayMetadata{
		GameID:        r.GameID,
		Timestamp:     time.Now(),
		Version:       replayVersion,
		SnapshotCount: len(r.Snapshots),
	}
	if err := enc.Encode(&meta); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, s := range r.Snapshots {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode snapshot %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip stream: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var meta replayMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	replay := NewReplay(meta.GameID)
	for i := 0; i < meta.SnapshotCount; i++ {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", i, err)
		}
		replay.Snapshots = append(replay.Snapshots, &s)
	}
	return replay, nil
}

// ReplayRecorder keeps in-memory replays for the games an engine runs.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins a fresh replay for gameID.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	rr.replays[gameID] = NewReplay(gameID)
	rr.mu.Unlock()

	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("game_id", gameID))
	}
}

// IsRecording reports whether gameID has an open replay.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	_, ok := rr.replays[gameID]
	return ok
}

// Record snapshots g if its game is being recorded.
func (rr *ReplayRecorder) Record(g *Game) error {
	rr.mu.RLock()
	replay := rr.replays[g.ID]
	rr.mu.RUnlock()
	if replay == nil {
		return nil
	}

	s, err := NewSnapshot(g)
	if err != nil {
		return fmt.Errorf("snapshot game %s: %w", g.ID, err)
	}
	replay.Record(s)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay snapshot",
			zap.String("game_id", g.ID),
			zap.Int("turn", s.Turn),
			zap.Int("snapshot_count", replay.Size()),
		)
	}
	return nil
}

// GetReplay returns the in-memory replay of gameID.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, ok := rr.replays[gameID]
	return replay, ok
}

// SaveReplay writes gameID's replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("snapshot_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay reads gameID's replay from disk.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}
	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("snapshot_count", replay.Size()),
		)
	}
	return replay, nil
}

// ClearReplay drops gameID's replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	if rr.logger != nil {
		rr.logger.Debug("cleared replay from memory", zap.String("game_id", gameID))
	}
}
