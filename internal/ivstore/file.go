package ivstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

// FileStore snapshots IV history to one msgpack file per symbol under a data
// directory. It is the default backend when no Postgres DSN is configured.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, guardrail.NewError(guardrail.CodeConfig, "iv store requires a data directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, guardrail.WrapError(guardrail.CodeConfig, err, "create iv store directory",
			"dir", dir)
	}
	return &FileStore{dir: dir}, nil
}

type snapshot struct {
	Symbol       string        `msgpack:"symbol"`
	Observations []Observation `msgpack:"observations"`
	SavedAt      time.Time     `msgpack:"saved_at"`
}

func (s *FileStore) path(symbol string) string {
	// Symbols like BRK.B or futures roots stay filesystem-safe.
	name := strings.NewReplacer("/", "_", ".", "_", ":", "_").Replace(strings.ToUpper(symbol))
	return filepath.Join(s.dir, "iv_"+name+".msgpack")
}

func (s *FileStore) History(ctx context.Context, symbol string, limit int) ([]Observation, error) {
	if err := guardrail.Require(symbol != "", guardrail.CodeValidation,
		"iv history requires a symbol"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 252
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(symbol)
	if err != nil {
		return nil, err
	}
	obs := snap.Observations
	if len(obs) > limit {
		obs = obs[len(obs)-limit:]
	}
	out := make([]Observation, len(obs))
	copy(out, obs)
	return out, nil
}

func (s *FileStore) Record(ctx context.Context, obs Observation) error {
	if err := validateObservation(obs); err != nil {
		return err
	}
	if obs.CreatedAt.IsZero() {
		obs.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(obs.Symbol)
	if err != nil {
		return err
	}

	day := obs.Date.UTC().Truncate(24 * time.Hour)
	obs.Date = day
	replaced := false
	for i := range snap.Observations {
		if snap.Observations[i].Date.Equal(day) {
			snap.Observations[i] = obs
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Observations = append(snap.Observations, obs)
		sort.Slice(snap.Observations, func(i, j int) bool {
			return snap.Observations[i].Date.Before(snap.Observations[j].Date)
		})
	}

	snap.Symbol = obs.Symbol
	snap.SavedAt = time.Now().UTC()
	return s.save(obs.Symbol, snap)
}

func (s *FileStore) load(symbol string) (*snapshot, error) {
	data, err := os.ReadFile(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return &snapshot{Symbol: symbol}, nil
		}
		return nil, guardrail.WrapError(guardrail.CodeUnknown, err, "read iv snapshot",
			"symbol", symbol)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, guardrail.WrapError(guardrail.CodeSchema, err, "decode iv snapshot",
			"symbol", symbol)
	}
	// msgpack decodes time.Time into the local zone; all dates in this
	// repo are UTC.
	for i := range snap.Observations {
		snap.Observations[i].Date = snap.Observations[i].Date.UTC()
		snap.Observations[i].CreatedAt = snap.Observations[i].CreatedAt.UTC()
	}
	snap.SavedAt = snap.SavedAt.UTC()
	return &snap, nil
}

func (s *FileStore) save(symbol string, snap *snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return guardrail.WrapError(guardrail.CodeSchema, err, "encode iv snapshot",
			"symbol", symbol)
	}
	// Write-then-rename so a crash mid-write never corrupts history.
	tmp := s.path(symbol) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return guardrail.WrapError(guardrail.CodeUnknown, err, "write iv snapshot",
			"symbol", symbol)
	}
	if err := os.Rename(tmp, s.path(symbol)); err != nil {
		return guardrail.WrapError(guardrail.CodeUnknown, err, "replace iv snapshot",
			"symbol", symbol)
	}
	return nil
}
