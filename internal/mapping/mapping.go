// Package mapping decides how a physical file relates to canonical
// episodes and persists that relation. A file is mapped as a single
// episode, one part of a multi-part episode, or a container of several
// episodes; anything else stays explicitly unmapped, never discarded.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/events"
	"github.com/catarr/catarr/pkg/naming"
)

// Parses weaker than this never produce a mapping. The parser reports
// confidence without judging it; acceptance policy lives here.
const minConfidence = 0.50

// Status is the per-file outcome of an identification attempt.
type Status int

const (
	Unmapped Status = iota
	Identified
)

func (s Status) String() string {
	if s == Identified {
		return "identified"
	}
	return "unmapped"
}

// Outcome reports what Identify did with one file.
type Outcome struct {
	Status  Status
	Mapping *catalog.FileMapping
	Parsed  naming.Parsed
	Reason  string // set for Unmapped
}

// Identifier maps files to episodes for an already-resolved series.
type Identifier struct {
	store *catalog.Store
	bus   *events.Bus
	log   *slog.Logger
}

// New creates an identifier. The bus may be nil in tests.
func New(store *catalog.Store, bus *events.Bus, logger *slog.Logger) *Identifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identifier{store: store, bus: bus, log: logger.With("component", "mapping")}
}

// Identify parses the file's path and writes its mapping. Paths are
// probed name first, then parent directory, inside naming.ParsePath.
// Re-identifying an already-mapped file replaces the old mapping in the
// same transaction, so no reader ever sees the file doubly mapped or
// momentarily unmapped.
//
// An unparseable name is a NoMatch outcome, not an error: the file is
// left unmapped and queued for attention. Errors mean the store failed.
func (i *Identifier) Identify(ctx context.Context, file *catalog.MediaFile, content *catalog.Content) (Outcome, error) {
	seasons, err := i.store.SeasonCounts(content.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("identify %s: %w", file.Path, err)
	}
	parseCtx := naming.Context{Seasons: seasons, DateOrdered: content.DateOrdered}

	parsed, ok := naming.ParsePath(file.Path, parseCtx)
	if !ok || parsed.Confidence < minConfidence {
		return i.leaveUnmapped(ctx, file, content, "no parse for name")
	}

	keys, err := i.episodeKeys(parsed, content)
	if err != nil {
		return Outcome{}, err
	}
	if len(keys) == 0 {
		return i.leaveUnmapped(ctx, file, content, "parse carried no episode address")
	}

	mapping, err := i.writeMapping(file, content, parsed, keys)
	if err != nil {
		return Outcome{}, err
	}

	i.log.Debug("file identified",
		"path", file.Path, "rule", parsed.Rule, "confidence", parsed.Confidence,
		"shape", mapping.Shape, "episodes", len(mapping.Episodes))
	if i.bus != nil {
		_ = i.bus.Publish(ctx, &events.FileIdentified{
			BaseEvent:  events.NewBaseEvent(events.EventFileIdentified, events.EntityFile, file.ID),
			FileID:     file.ID,
			ContentID:  content.ID,
			MappingID:  mapping.ID,
			Shape:      string(mapping.Shape),
			Rule:       parsed.Rule,
			Confidence: parsed.Confidence,
		})
	}
	return Outcome{Status: Identified, Mapping: mapping, Parsed: parsed}, nil
}

// episodeKeys turns a parse result into canonical episode addresses.
func (i *Identifier) episodeKeys(parsed naming.Parsed, content *catalog.Content) ([]catalog.EpisodeKey, error) {
	if parsed.Date != "" {
		return i.keysForDate(parsed.Date, content)
	}
	keys := make([]catalog.EpisodeKey, 0, len(parsed.Episodes))
	for _, ep := range parsed.Episodes {
		keys = append(keys, catalog.EpisodeKey{Season: parsed.Season, Episode: ep})
	}
	return keys, nil
}

// keysForDate finds the expected episode airing on the parsed date.
// Date-ordered series address episodes by air date, not number.
func (i *Identifier) keysForDate(date string, content *catalog.Content) ([]catalog.EpisodeKey, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, nil
	}
	expected, _, err := i.store.ListExpected(catalog.ExpectedFilter{ContentID: &content.ID})
	if err != nil {
		return nil, fmt.Errorf("list expected for date lookup: %w", err)
	}
	for _, row := range expected {
		if row.AirDate != nil && sameDay(*row.AirDate, day) {
			return []catalog.EpisodeKey{row.Key()}, nil
		}
	}
	return nil, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// writeMapping atomically replaces the file's mapping. A part-marked
// parse joins the existing multi-part mapping for its episode when one
// exists; everything else creates a fresh mapping.
func (i *Identifier) writeMapping(file *catalog.MediaFile, content *catalog.Content, parsed naming.Parsed, keys []catalog.EpisodeKey) (*catalog.FileMapping, error) {
	tx, err := i.store.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin mapping write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.RemoveMappingForFile(file.ID); err != nil {
		return nil, err
	}

	var mapping *catalog.FileMapping
	switch {
	case parsed.Part > 0 && !parsed.Multi():
		mapping, err = i.joinOrCreateMultiPart(tx, file, content, parsed.Part, keys[0])
	case parsed.Multi():
		mapping = &catalog.FileMapping{
			ContentID: content.ID,
			Shape:     catalog.ShapeMultiEpisode,
			Files:     []catalog.MappingFile{{FileID: file.ID}},
			Episodes:  keys,
		}
		err = tx.AddMapping(mapping)
	default:
		mapping = &catalog.FileMapping{
			ContentID: content.ID,
			Shape:     catalog.ShapeSingle,
			Files:     []catalog.MappingFile{{FileID: file.ID}},
			Episodes:  keys,
		}
		err = tx.AddMapping(mapping)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mapping write: %w", err)
	}
	return mapping, nil
}

// joinOrCreateMultiPart appends the file to the episode's multi-part
// mapping, creating it for the first part observed. One part is enough
// for the episode to count as present.
func (i *Identifier) joinOrCreateMultiPart(tx *catalog.Tx, file *catalog.MediaFile, content *catalog.Content, part int, key catalog.EpisodeKey) (*catalog.FileMapping, error) {
	existing, err := tx.FindMappingByEpisode(content.ID, key)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	if err == nil && existing.Shape == catalog.ShapeMultiPart {
		if err := tx.AddMappingFile(existing.ID, catalog.MappingFile{FileID: file.ID, Part: part}); err != nil {
			return nil, err
		}
		return tx.GetMapping(existing.ID)
	}

	mapping := &catalog.FileMapping{
		ContentID: content.ID,
		Shape:     catalog.ShapeMultiPart,
		Files:     []catalog.MappingFile{{FileID: file.ID, Part: part}},
		Episodes:  []catalog.EpisodeKey{key},
	}
	if err := tx.AddMapping(mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// leaveUnmapped records the explicit unmapped state. The file keeps any
// previous mapping only if one exists and the name no longer parses;
// callers decide whether to drop it, so nothing is deleted here.
func (i *Identifier) leaveUnmapped(ctx context.Context, file *catalog.MediaFile, content *catalog.Content, reason string) (Outcome, error) {
	i.log.Debug("file left unmapped", "path", file.Path, "reason", reason)

	att := &catalog.Attention{
		ContentID: content.ID,
		Kind:      catalog.AttentionUnmappedFile,
		Detail:    fmt.Sprintf("%s: %s", file.Path, reason),
	}
	if err := i.store.AddAttention(att); err != nil {
		return Outcome{}, fmt.Errorf("queue unmapped file: %w", err)
	}

	if i.bus != nil {
		_ = i.bus.Publish(ctx, &events.FileUnmapped{
			BaseEvent: events.NewBaseEvent(events.EventFileUnmapped, events.EntityFile, file.ID),
			FileID:    file.ID,
			Path:      file.Path,
			Reason:    reason,
		})
	}
	return Outcome{Status: Unmapped, Reason: reason}, nil
}
