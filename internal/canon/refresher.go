package canon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/provider"
)

// Refresher fetches provider episode lists and feeds them to the
// Manager per each series' stored policy.
type Refresher struct {
	store   *catalog.Store
	manager *Manager
	sources map[string]provider.Source
	log     *slog.Logger
}

// NewRefresher creates a refresher over a set of provider sources.
func NewRefresher(store *catalog.Store, manager *Manager, sources []provider.Source, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]provider.Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	return &Refresher{
		store:   store,
		manager: manager,
		sources: byName,
		log:     logger.With("component", "refresh"),
	}
}

// RefreshSeries fetches from the series' canonical and fallback
// providers and merges the result. A provider without a stored external
// ID, without a configured source, or answering not-found simply
// contributes nothing; the merge fails only when no provider
// contributes at all.
func (r *Refresher) RefreshSeries(ctx context.Context, contentID int64) (*Result, error) {
	content, err := r.store.GetContent(contentID)
	if err != nil {
		return nil, fmt.Errorf("refresh series %d: %w", contentID, err)
	}

	ids, err := r.store.ListExternalIDs(contentID)
	if err != nil {
		return nil, fmt.Errorf("refresh series %d: %w", contentID, err)
	}
	idByProvider := make(map[string]string, len(ids))
	for _, id := range ids {
		idByProvider[id.Provider] = id.Value
	}

	policy := content.Policy()
	canonical := r.fetch(ctx, policy.Canonical, idByProvider)
	var fallback *provider.FetchedSeries
	if policy.Fallback != "" && policy.Fallback != policy.Canonical {
		fallback = r.fetch(ctx, policy.Fallback, idByProvider)
	}

	return r.manager.Refresh(ctx, content, canonical, fallback)
}

// fetch returns the provider's list, or nil when this provider cannot
// contribute.
func (r *Refresher) fetch(ctx context.Context, name string, idByProvider map[string]string) *provider.FetchedSeries {
	if name == "" {
		return nil
	}
	source, ok := r.sources[name]
	if !ok {
		r.log.Debug("no source configured", "provider", name)
		return nil
	}
	id, ok := idByProvider[name]
	if !ok {
		r.log.Debug("no external id stored", "provider", name)
		return nil
	}
	fetched, err := source.FetchSeries(ctx, id)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			r.log.Warn("provider does not know series", "provider", name, "id", id)
		} else {
			r.log.Error("provider fetch failed", "provider", name, "id", id, "error", err)
		}
		return nil
	}
	return fetched
}
