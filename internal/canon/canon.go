// Package canon maintains the authoritative expected-episode list per
// series. A refresh merges freshly fetched provider data into the
// catalog under the series' merge policy, honoring user field locks and
// surfacing anything that would silently invalidate existing mappings.
package canon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/events"
	"github.com/catarr/catarr/internal/provider"
)

// ErrNoProviderData means neither the canonical nor the fallback
// provider supplied an episode list.
var ErrNoProviderData = errors.New("no provider data")

// Fields the merge may touch on an expected episode. Locks on these
// names keep provider data from overwriting user edits.
const (
	FieldTitle   = "title"
	FieldAirDate = "air_date"
)

// Result summarizes one refresh.
type Result struct {
	Provider string // provider whose list won
	Episodes int    // expected rows after the merge
	Removed  int    // expected rows deleted by the merge
	Orphaned []catalog.EpisodeKey
	Mismatch bool // canonical and fallback disagreed
}

// Manager merges provider episode lists into the catalog.
type Manager struct {
	store *catalog.Store
	bus   *events.Bus
	log   *slog.Logger
}

// New creates a manager. The bus may be nil in tests.
func New(store *catalog.Store, bus *events.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, bus: bus, log: logger.With("component", "canon")}
}

// Refresh replaces the series' expected episodes with the fetched list.
// canonical and fallback follow the series policy; the canonical list
// wins whenever it has episodes. The merge is one transaction: a reader
// never sees a half-applied list.
//
// Expected rows the new list no longer contains are deleted, but any
// file mappings keyed to those episodes survive and are flagged
// orphaned for reconciliation. Locked title/air-date fields keep their
// stored values.
func (m *Manager) Refresh(ctx context.Context, content *catalog.Content, canonical, fallback *provider.FetchedSeries) (*Result, error) {
	list, mismatch := chooseList(canonical, fallback)
	if list == nil {
		return nil, fmt.Errorf("refresh series %d: %w", content.ID, ErrNoProviderData)
	}

	numbered, err := numberEpisodes(list, content.Policy().Ordering)
	if err != nil {
		return nil, fmt.Errorf("refresh series %d: %w", content.ID, err)
	}

	locks, err := m.store.LockedFields(content.ID)
	if err != nil {
		return nil, fmt.Errorf("load field locks: %w", err)
	}
	existing, _, err := m.store.ListExpected(catalog.ExpectedFilter{ContentID: &content.ID})
	if err != nil {
		return nil, fmt.Errorf("load expected episodes: %w", err)
	}
	mapped, err := m.store.PresentKeys(content.ID)
	if err != nil {
		return nil, fmt.Errorf("load mapped keys: %w", err)
	}

	existingByKey := make(map[catalog.EpisodeKey]*catalog.ExpectedEpisode, len(existing))
	for _, row := range existing {
		existingByKey[row.Key()] = row
	}

	tx, err := m.store.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin refresh: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &Result{Provider: list.Provider, Mismatch: mismatch}
	newKeys := make(map[catalog.EpisodeKey]bool, len(numbered))

	for _, ep := range numbered {
		if newKeys[ep.key] {
			// Provider listed the same address twice; first wins.
			continue
		}
		newKeys[ep.key] = true

		row := &catalog.ExpectedEpisode{
			ContentID:         content.ID,
			Season:            ep.key.Season,
			Episode:           ep.key.Episode,
			Title:             ep.source.Title,
			AirDate:           ep.source.AirDate,
			Provider:          list.Provider,
			ProviderEpisodeID: ep.source.ProviderEpisodeID,
		}
		if old, ok := existingByKey[ep.key]; ok {
			if locks[ep.key][FieldTitle] {
				row.Title = old.Title
			}
			if locks[ep.key][FieldAirDate] {
				row.AirDate = old.AirDate
			}
		}
		if err := tx.UpsertExpected(row); err != nil {
			return nil, err
		}
	}
	result.Episodes = len(newKeys)

	for key := range existingByKey {
		if newKeys[key] {
			continue
		}
		if err := tx.DeleteExpected(content.ID, key); err != nil {
			return nil, err
		}
		result.Removed++
	}

	for key := range mapped {
		if newKeys[key] {
			continue
		}
		result.Orphaned = append(result.Orphaned, key)
		if err := tx.AddAttention(&catalog.Attention{
			ContentID: content.ID,
			Kind:      catalog.AttentionOrphanedMapping,
			Detail:    fmt.Sprintf("S%02dE%02d no longer expected after %s refresh", key.Season, key.Episode, list.Provider),
		}); err != nil {
			return nil, err
		}
	}

	if mismatch {
		if err := tx.AddAttention(&catalog.Attention{
			ContentID: content.ID,
			Kind:      catalog.AttentionProviderMismatch,
			Detail:    mismatchDetail(canonical, fallback),
		}); err != nil {
			return nil, err
		}
	}

	if err := m.applySeriesFields(tx, content, list, locks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit refresh: %w", err)
	}

	m.log.Info("series refreshed",
		"content_id", content.ID, "provider", list.Provider,
		"episodes", result.Episodes, "removed", result.Removed, "orphaned", len(result.Orphaned))
	m.publish(ctx, content, result)
	return result, nil
}

// applySeriesFields updates the content row with provider-side series
// data and records the provider identifier. A user lock on the series
// title keeps it.
func (m *Manager) applySeriesFields(tx *catalog.Tx, content *catalog.Content, list *provider.FetchedSeries, locks map[catalog.EpisodeKey]map[string]bool) error {
	if list.ImageBase != "" {
		content.ImageBase = list.ImageBase
	}
	if list.Title != "" && !locks[catalog.SeriesField][FieldTitle] {
		content.Title = list.Title
	}
	if err := tx.UpdateContent(content); err != nil {
		return fmt.Errorf("update series row: %w", err)
	}

	err := tx.SetExternalID(catalog.ExternalID{
		ContentID: content.ID,
		Provider:  list.Provider,
		Value:     list.ID,
	})
	if err != nil && !errors.Is(err, catalog.ErrLocked) {
		return fmt.Errorf("record provider id: %w", err)
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, content *catalog.Content, result *Result) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(ctx, &events.SeriesRefreshed{
		BaseEvent: events.NewBaseEvent(events.EventSeriesRefreshed, events.EntityContent, content.ID),
		ContentID: content.ID,
		Provider:  result.Provider,
		Episodes:  result.Episodes,
		Orphaned:  len(result.Orphaned),
	})
	if result.Mismatch {
		_ = m.bus.Publish(ctx, &events.RefreshConflict{
			BaseEvent: events.NewBaseEvent(events.EventRefreshConflict, events.EntityContent, content.ID),
			ContentID: content.ID,
			Detail:    "canonical and fallback providers disagree",
		})
	}
}

// chooseList picks the winning episode list and reports whether the two
// providers disagree. The canonical list wins whenever it has episodes.
func chooseList(canonical, fallback *provider.FetchedSeries) (*provider.FetchedSeries, bool) {
	hasEpisodes := func(s *provider.FetchedSeries) bool { return s != nil && len(s.Episodes) > 0 }

	var winner *provider.FetchedSeries
	switch {
	case hasEpisodes(canonical):
		winner = canonical
	case hasEpisodes(fallback):
		winner = fallback
	default:
		return nil, false
	}

	mismatch := hasEpisodes(canonical) && hasEpisodes(fallback) && !sameAiredKeys(canonical, fallback)
	return winner, mismatch
}

// sameAiredKeys compares the two providers' aired-order key sets.
func sameAiredKeys(a, b *provider.FetchedSeries) bool {
	if len(a.Episodes) != len(b.Episodes) {
		return false
	}
	keys := make(map[provider.Numbering]bool, len(a.Episodes))
	for _, ep := range a.Episodes {
		keys[ep.Aired] = true
	}
	for _, ep := range b.Episodes {
		if !keys[ep.Aired] {
			return false
		}
	}
	return true
}

func mismatchDetail(canonical, fallback *provider.FetchedSeries) string {
	return fmt.Sprintf("%s lists %d episodes, %s lists %d; canonical numbering kept",
		canonical.Provider, len(canonical.Episodes), fallback.Provider, len(fallback.Episodes))
}

type numberedEpisode struct {
	key    catalog.EpisodeKey
	source provider.FetchedEpisode
}

// numberEpisodes addresses each fetched episode under the requested
// ordering. The manager never computes alternate orderings itself; it
// only selects among the numberings the provider supplied, falling back
// to aired numbers for episodes the provider left out of the alternate
// order. Specials (season 0) always keep their aired address.
func numberEpisodes(list *provider.FetchedSeries, ordering catalog.Ordering) ([]numberedEpisode, error) {
	out := make([]numberedEpisode, 0, len(list.Episodes))
	for _, ep := range list.Episodes {
		key := catalog.EpisodeKey{Season: ep.Aired.Season, Episode: ep.Aired.Episode}
		if ep.Aired.Season != 0 {
			switch ordering {
			case catalog.OrderingDVD:
				if ep.DVD != nil {
					key = catalog.EpisodeKey{Season: ep.DVD.Season, Episode: ep.DVD.Episode}
				}
			case catalog.OrderingAbsolute:
				if ep.Absolute > 0 {
					key = catalog.EpisodeKey{Season: 1, Episode: ep.Absolute}
				}
			case catalog.OrderingAired, "":
			default:
				return nil, fmt.Errorf("unknown ordering %q", ordering)
			}
		}
		if key.Season < 0 || key.Episode < 0 {
			return nil, fmt.Errorf("episode %s: negative address", ep.ProviderEpisodeID)
		}
		out = append(out, numberedEpisode{key: key, source: ep})
	}
	return out, nil
}
