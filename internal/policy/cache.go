// Package policy maintains the mapping from EU Birds/Habitats Directive
// codes to species, fetched from the EEA listing and cached on disk.
package policy

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/bioquery/internal/observability"
	"github.com/jonathan/bioquery/internal/types"
)

// DefaultMaxAge is how long a cache file stays usable after it was written.
const DefaultMaxAge = 7 * 24 * time.Hour

// Lister fetches the complete policy code listing.
type Lister interface {
	ListPolicyCodes(ctx context.Context) ([]types.PolicyCodeEntry, error)
}

// Store persists snapshots between runs.
type Store interface {
	Load(maxAge time.Duration) (Snapshot, error)
	Save(snap Snapshot) error
	Remove() error
}

// Options configures a Cache.
type Options struct {
	MaxAge time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Cache is a lazily populated snapshot of the policy code listing.
// The snapshot is either empty or the complete result of the last successful
// fetch. A Cache is not safe for concurrent use.
type Cache struct {
	lister Lister
	store  Store
	logger *slog.Logger
	now    func() time.Time

	entries   map[string]types.PolicyCodeEntry
	fetchedAt time.Time
}

// NewCache creates a cache and loads the stored snapshot if it is younger
// than opts.MaxAge. A missing, corrupt or stale file leaves the cache empty.
// store may be nil for an in-memory cache.
func NewCache(lister Lister, store Store, opts *Options) *Cache {
	if opts == nil {
		opts = &Options{}
	}
	c := &Cache{
		lister:  lister,
		store:   store,
		logger:  opts.Logger,
		now:     opts.Now,
		entries: map[string]types.PolicyCodeEntry{},
	}
	if c.logger == nil {
		c.logger = observability.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	if store != nil {
		snap, err := store.Load(maxAge)
		switch {
		case err == nil:
			c.entries = snap.Entries
			c.fetchedAt = snap.FetchedAt
			c.logger.Info("loaded policy codes from cache", "count", len(c.entries))
		case errors.Is(err, os.ErrNotExist):
			c.logger.Debug("no policy cache on disk")
		default:
			c.logger.Warn("ignoring policy cache", "error", err)
		}
	}
	return c
}

// Len returns the number of entries in the current snapshot.
func (c *Cache) Len() int {
	return len(c.entries)
}

// FetchedAt returns when the current snapshot was fetched (zero when empty).
func (c *Cache) FetchedAt() time.Time {
	return c.fetchedAt
}

// Get returns the entry for code. An empty snapshot is fetched first.
func (c *Cache) Get(ctx context.Context, code string) (types.PolicyCodeEntry, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c.ensureLoaded(ctx)

	entry, ok := c.entries[code]
	return entry, ok
}

// GetByName returns the entry whose scientific name equals name, ignoring case.
// An empty snapshot is fetched first.
func (c *Cache) GetByName(ctx context.Context, name string) (types.PolicyCodeEntry, bool) {
	c.ensureLoaded(ctx)

	name = strings.TrimSpace(name)
	codes := make([]string, 0, len(c.entries))
	for code := range c.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		entry := c.entries[code]
		if strings.EqualFold(entry.ScientificName, name) {
			return entry, true
		}
	}
	return types.PolicyCodeEntry{}, false
}

// Refresh discards the snapshot in memory and on disk, then fetches anew.
func (c *Cache) Refresh(ctx context.Context) error {
	c.entries = map[string]types.PolicyCodeEntry{}
	c.fetchedAt = time.Time{}
	if c.store != nil {
		if err := c.store.Remove(); err != nil {
			c.logger.Warn("could not remove policy cache", "error", err)
		}
	}
	return c.Fetch(ctx)
}

// Fetch downloads the listing and replaces the snapshot with it. On failure
// the current snapshot is kept and the error is logged and returned.
func (c *Cache) Fetch(ctx context.Context) error {
	c.logger.Info("fetching policy codes from EEA EUNIS listing")

	list, err := c.lister.ListPolicyCodes(ctx)
	if err != nil {
		c.logger.Warn("policy code fetch failed", "error", err)
		return err
	}
	c.logger.Info("retrieved policy codes", "count", len(list))

	entries := make(map[string]types.PolicyCodeEntry, len(list))
	for _, entry := range list {
		entry.Code = strings.ToUpper(strings.TrimSpace(entry.Code))
		if entry.Code == "" || entry.ScientificName == "" {
			continue
		}
		entries[entry.Code] = entry
	}
	c.entries = entries
	c.fetchedAt = c.now()

	if c.store != nil {
		if err := c.store.Save(Snapshot{Entries: entries, FetchedAt: c.fetchedAt}); err != nil {
			c.logger.Warn("could not save policy cache", "error", err)
		} else {
			c.logger.Debug("saved policy codes to cache", "count", len(entries))
		}
	}
	return nil
}

func (c *Cache) ensureLoaded(ctx context.Context) {
	if len(c.entries) > 0 {
		return
	}
	// errors are logged by Fetch; lookups proceed against the empty snapshot
	_ = c.Fetch(ctx)
}
