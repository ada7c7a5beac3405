package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/feature"
)

// DefaultMaxAge is how long a cached snapshot of the feed stays fresh.
const DefaultMaxAge = 24 * time.Hour

var _ feature.NewsProvider = (*Archive)(nil)

// Fetcher downloads the full event feed. *Client satisfies it.
type Fetcher interface {
	AllNews(ctx context.Context) ([]domain.NewsEvent, error)
}

// Archive serves news events from a local JSON snapshot, refreshing it
// from a Fetcher when the snapshot is missing or stale. It implements
// feature.NewsProvider.
type Archive struct {
	path    string
	fetcher Fetcher
	maxAge  time.Duration

	events []domain.NewsEvent // sorted by Time, loaded lazily
}

// NewArchive creates an archive backed by the JSON file at path.
// fetcher may be nil, in which case the snapshot must already exist.
func NewArchive(path string, fetcher Fetcher, maxAge time.Duration) *Archive {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Archive{path: path, fetcher: fetcher, maxAge: maxAge}
}

// EventsBetween returns events with Time in [start, end] (ms, inclusive)
// that relate to symbol. An event relates to a symbol when the symbol
// appears in its symbols list, or in any of its suggestions.
func (a *Archive) EventsBetween(ctx context.Context, start, end int64, symbol string) ([]domain.NewsEvent, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	// events is sorted; binary search for the first event at or after start.
	lo := sort.Search(len(a.events), func(i int) bool {
		return a.events[i].Time >= start
	})

	var out []domain.NewsEvent
	for i := lo; i < len(a.events) && a.events[i].Time <= end; i++ {
		if eventMatchesSymbol(&a.events[i], symbol) {
			out = append(out, a.events[i])
		}
	}
	return out, nil
}

func eventMatchesSymbol(ev *domain.NewsEvent, symbol string) bool {
	for _, s := range ev.Symbols {
		if s == symbol {
			return true
		}
	}
	for _, sug := range ev.Suggestions {
		for _, ss := range sug.Symbols {
			if ss.Symbol == symbol {
				return true
			}
		}
	}
	return false
}

func (a *Archive) ensureLoaded(ctx context.Context) error {
	if a.events != nil {
		return nil
	}

	stale, err := a.snapshotStale()
	if err != nil {
		return err
	}
	if stale {
		if err := a.refresh(ctx); err != nil {
			return err
		}
	}

	events, err := readSnapshot(a.path)
	if err != nil {
		return err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	a.events = events
	return nil
}

func (a *Archive) snapshotStale() (bool, error) {
	info, err := os.Stat(a.path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat news snapshot: %w", err)
	}
	return time.Since(info.ModTime()) > a.maxAge, nil
}

func (a *Archive) refresh(ctx context.Context) error {
	if a.fetcher == nil {
		return fmt.Errorf("news snapshot %s is missing or stale and no fetcher is configured", a.path)
	}

	events, err := a.fetcher.AllNews(ctx)
	if err != nil {
		return fmt.Errorf("refresh news snapshot: %w", err)
	}

	if err := writeSnapshot(a.path, events); err != nil {
		return err
	}
	return nil
}

func readSnapshot(path string) ([]domain.NewsEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read news snapshot: %w", err)
	}
	var events []domain.NewsEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse news snapshot: %w", err)
	}
	return events, nil
}

func writeSnapshot(path string, events []domain.NewsEvent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal news snapshot: %w", err)
	}

	// Write through a temp file so a crash never leaves a torn snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write news snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace news snapshot: %w", err)
	}
	return nil
}
