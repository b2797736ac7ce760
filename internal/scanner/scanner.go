// Package scanner walks library roots, records every video file it
// finds, and drives identification for series libraries. Each
// first-level directory under a series root is treated as one series.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/events"
	"github.com/catarr/catarr/internal/mapping"
	"github.com/catarr/catarr/internal/resolve"
	"github.com/catarr/catarr/pkg/naming"
)

// Options configures a scanner.
type Options struct {
	Workers   int    // concurrent per-file units, minimum 1
	Canonical string // provider policy stamped on newly created content
	Fallback  string
}

// Summary is the result of one scan pass over a root.
type Summary struct {
	Root       string
	Files      int
	Identified int
	Unmapped   int
	NewContent int
}

// Scanner owns the scan pipeline: walk, probe, record, identify.
type Scanner struct {
	store    *catalog.Store
	resolver *resolve.Resolver
	ident    *mapping.Identifier
	bus      *events.Bus
	probe    Prober
	opts     Options
	log      *slog.Logger

	seriesMu keyedMutex
}

// New creates a scanner. probe may be nil, in which case files are
// recorded without container metadata.
func New(store *catalog.Store, resolver *resolve.Resolver, ident *mapping.Identifier, bus *events.Bus, probe Prober, opts Options, logger *slog.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:    store,
		resolver: resolver,
		ident:    ident,
		bus:      bus,
		probe:    probe,
		opts:     opts,
		log:      logger.With("component", "scanner"),
	}
}

// ScanSeries walks a series library root. Files are grouped by their
// series directory, the directory is resolved to a catalog identity
// once per group, and every file then runs the full identification
// unit. Units are independent; a cancelled context stops the scan
// between units, never inside one.
func (s *Scanner) ScanSeries(ctx context.Context, root string) (Summary, error) {
	summary := Summary{Root: root}
	s.publish(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityFile, 0),
		Root:      root,
	})

	groups, err := collectVideoFiles(root)
	if err != nil {
		return summary, err
	}

	// Resolve series identities sequentially; creation must not race
	// against the identity uniqueness constraint.
	contents := make(map[string]*catalog.Content, len(groups))
	for _, dir := range sortedKeys(groups) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		content, created, err := s.resolveDir(ctx, dir)
		if err != nil {
			return summary, err
		}
		if created {
			summary.NewContent++
		}
		contents[dir] = content // nil when unresolved
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, dir := range sortedKeys(groups) {
		content := contents[dir]
		for _, path := range groups[dir] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				identified, err := s.processFile(gctx, path, content)
				if err != nil {
					return err
				}
				mu.Lock()
				summary.Files++
				if identified {
					summary.Identified++
				} else {
					summary.Unmapped++
				}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	s.publish(ctx, &events.ScanCompleted{
		BaseEvent:  events.NewBaseEvent(events.EventScanCompleted, events.EntityFile, 0),
		Root:       root,
		Files:      summary.Files,
		Identified: summary.Identified,
		Unmapped:   summary.Unmapped,
	})
	s.log.Info("scan completed", "root", root,
		"files", summary.Files, "identified", summary.Identified, "unmapped", summary.Unmapped)
	return summary, nil
}

// ScanFiles walks a root and records files without identification.
// Used for libraries that have no episode semantics.
func (s *Scanner) ScanFiles(ctx context.Context, root string) (Summary, error) {
	summary := Summary{Root: root}
	s.publish(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityFile, 0),
		Root:      root,
	})

	groups, err := collectVideoFiles(root)
	if err != nil {
		return summary, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, dir := range sortedKeys(groups) {
		for _, path := range groups[dir] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, err := s.recordFile(gctx, path); err != nil {
					return err
				}
				mu.Lock()
				summary.Files++
				summary.Unmapped++
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	s.publish(ctx, &events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityFile, 0),
		Root:      root,
		Files:     summary.Files,
		Unmapped:  summary.Unmapped,
	})
	return summary, nil
}

// resolveDir maps one series directory to a content row, creating the
// row when the resolver reports a confident new identity. Ambiguous
// directories are queued for attention and left unresolved.
func (s *Scanner) resolveDir(ctx context.Context, dir string) (*catalog.Content, bool, error) {
	res, err := s.resolver.Resolve(dir, nil)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", dir, err)
	}

	switch res.Kind {
	case resolve.ResolvedExisting:
		return res.Content, false, nil

	case resolve.ResolvedNew:
		c := &catalog.Content{
			Type:              catalog.ContentTypeSeries,
			Title:             res.New.Title,
			CleanTitle:        res.New.CleanTitle,
			Year:              res.New.Year,
			Ordering:          catalog.OrderingAired,
			CanonicalProvider: s.opts.Canonical,
			FallbackProvider:  s.opts.Fallback,
		}
		if err := s.store.AddContent(c); err != nil {
			return nil, false, fmt.Errorf("add content for %s: %w", dir, err)
		}
		if res.New.Tag != nil {
			err := s.store.SetExternalID(catalog.ExternalID{
				ContentID: c.ID, Provider: res.New.Tag.Provider, Value: res.New.Tag.Value,
			})
			if err != nil {
				return nil, false, fmt.Errorf("set external id for %s: %w", dir, err)
			}
		}
		s.publish(ctx, &events.ContentAdded{
			BaseEvent:   events.NewBaseEvent(events.EventContentAdded, events.EntityContent, c.ID),
			ContentID:   c.ID,
			ContentType: string(c.Type),
			Title:       c.Title,
			Year:        c.Year,
		})
		s.log.Info("content added", "title", c.Title, "year", c.Year, "id", c.ID)
		return c, true, nil

	case resolve.Ambiguous:
		a := &catalog.Attention{
			Kind:   catalog.AttentionAmbiguous,
			Detail: fmt.Sprintf("directory %s matches %d catalog entries", dir, len(res.Candidates)),
		}
		if err := s.store.AddAttention(a); err != nil {
			return nil, false, fmt.Errorf("queue ambiguity for %s: %w", dir, err)
		}
		s.log.Warn("ambiguous series directory", "dir", dir, "candidates", len(res.Candidates))
		return nil, false, nil

	default:
		s.log.Warn("unresolvable series directory", "dir", dir)
		return nil, false, nil
	}
}

// processFile runs one identification unit: stat, probe, record,
// identify. content may be nil for files under an unresolved directory;
// those are recorded and left unmapped.
func (s *Scanner) processFile(ctx context.Context, path string, content *catalog.Content) (bool, error) {
	file, err := s.recordFile(ctx, path)
	if err != nil {
		return false, err
	}
	if content == nil {
		return false, nil
	}

	// Mapping writes for one series are serialized so multi-part joins
	// see each other's mappings.
	unlock := s.seriesMu.lock(content.ID)
	defer unlock()

	outcome, err := s.ident.Identify(ctx, file, content)
	if err != nil {
		return false, fmt.Errorf("identify %s: %w", path, err)
	}
	return outcome.Status == mapping.Identified, nil
}

// recordFile stats, probes, and upserts one file row.
func (s *Scanner) recordFile(ctx context.Context, path string) (*catalog.MediaFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	file := &catalog.MediaFile{
		Path:      path,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}

	hash, err := QuickHash(path, info.Size())
	if err != nil {
		return nil, err
	}
	file.QuickHash = hash

	if s.probe != nil {
		probed, err := s.probe.Probe(ctx, path)
		if err != nil {
			// A broken or still-copying file is worth recording anyway.
			s.log.Warn("probe failed", "path", path, "error", err)
		} else {
			file.Container = probed.Container
			file.DurationMS = probed.DurationMS
			file.Streams = probed.Streams
		}
	}

	if err := s.store.UpsertFile(file); err != nil {
		return nil, err
	}
	s.publish(ctx, &events.FileObserved{
		BaseEvent: events.NewBaseEvent(events.EventFileObserved, events.EntityFile, file.ID),
		FileID:    file.ID,
		Path:      file.Path,
	})
	return file, nil
}

func (s *Scanner) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, e)
}

// collectVideoFiles walks root and groups video file paths by their
// first-level directory. Files sitting directly in the root are grouped
// under the root itself. Hidden directories are skipped.
func collectVideoFiles(root string) (map[string][]string, error) {
	root = filepath.Clean(root)
	groups := make(map[string][]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !naming.IsVideo(d.Name()) {
			return nil
		}
		groups[groupDir(root, path)] = append(groups[groupDir(root, path)], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	for _, paths := range groups {
		sort.Strings(paths)
	}
	return groups, nil
}

// groupDir returns the first-level directory under root that contains
// path, or root itself for top-level files.
func groupDir(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return root
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return root
	}
	return filepath.Join(root, parts[0])
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyedMutex hands out one mutex per content ID.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
