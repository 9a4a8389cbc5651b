package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/futurescan/internal/vision"
	"github.com/wonny/futurescan/pkg/logger"
	"github.com/wonny/futurescan/pkg/redis"
)

// cacheKey and TTL for the discovered symbol set. Discovery is one paginated
// bucket walk, cheap enough to redo daily but not per command invocation.
const (
	symbolsCacheKey = "catalog:symbols"
	symbolsCacheTTL = 24 * time.Hour
)

// Discoverer lists symbol directories in the remote store.
// *vision.Client satisfies it.
type Discoverer interface {
	DiscoverSymbols(ctx context.Context) ([]string, error)
}

// LedgerSymbols exposes the symbols the ledger already knows.
// *ledger.Store satisfies it.
type LedgerSymbols interface {
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// Catalog supplies the working set of perpetual symbols for probe runs.
// ⭐ SSOT: every run's symbol universe comes from here.
//
// The set is the union of bucket discovery and the ledger's own history, so
// a symbol that disappeared from the bucket listing keeps getting probed
// and its delisting shows up as explicit unavailable rows instead of
// silence.
type Catalog struct {
	discoverer Discoverer
	ledger     LedgerSymbols
	cache      *redis.Cache
	logger     *logger.Logger
}

// New creates a catalog. cache may be backed by a disabled client; lookups
// then fall through to discovery every time.
func New(discoverer Discoverer, ledger LedgerSymbols, cache *redis.Cache, log *logger.Logger) *Catalog {
	return &Catalog{
		discoverer: discoverer,
		ledger:     ledger,
		cache:      cache,
		logger:     log.WithField("module", "catalog"),
	}
}

// Symbols returns the sorted working set of perpetual symbols.
func (c *Catalog) Symbols(ctx context.Context) ([]string, error) {
	discovered, err := c.discoveredSymbols(ctx)
	if err != nil {
		return nil, err
	}

	known, err := c.ledger.DistinctSymbols(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(discovered)+len(known))
	for _, s := range vision.FilterPerpetuals(discovered) {
		set[s] = struct{}{}
	}
	for _, s := range vision.FilterPerpetuals(known) {
		set[s] = struct{}{}
	}

	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	c.logger.WithFields(map[string]interface{}{
		"discovered": len(discovered),
		"ledger":     len(known),
		"working":    len(symbols),
	}).Info("Symbol catalog assembled")
	return symbols, nil
}

// DetectNew returns discovered symbols the ledger has never seen, the
// candidates for a targeted backfill.
func (c *Catalog) DetectNew(ctx context.Context) ([]string, error) {
	discovered, err := c.discoveredSymbols(ctx)
	if err != nil {
		return nil, err
	}
	known, err := c.ledger.DistinctSymbols(ctx)
	if err != nil {
		return nil, err
	}

	inLedger := make(map[string]struct{}, len(known))
	for _, s := range known {
		inLedger[s] = struct{}{}
	}

	var fresh []string
	for _, s := range vision.FilterPerpetuals(discovered) {
		if _, ok := inLedger[s]; !ok {
			fresh = append(fresh, s)
		}
	}
	sort.Strings(fresh)
	return fresh, nil
}

// Refresh drops the cached discovery result so the next lookup walks the
// bucket again.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.cache.Delete(ctx, symbolsCacheKey)
}

func (c *Catalog) discoveredSymbols(ctx context.Context) ([]string, error) {
	var cached []string
	hit, err := c.cache.Get(ctx, symbolsCacheKey, &cached)
	if err != nil {
		// Cache trouble downgrades to a fresh discovery.
		c.logger.WithError(err).Warn("symbol cache read failed")
	} else if hit {
		c.logger.Debugf("symbol catalog served from cache (%d symbols)", len(cached))
		return cached, nil
	}

	discovered, err := c.discoverer.DiscoverSymbols(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, symbolsCacheKey, discovered, symbolsCacheTTL); err != nil {
		c.logger.WithError(err).Warn("symbol cache write failed")
	}
	return discovered, nil
}
