package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSource serves series documents from a directory of JSON files,
// one file per series named <id>.json. It backs offline refreshes and
// tests; the documents use the same shape a network source would
// deserialize.
type FileSource struct {
	name string
	root string
}

// NewFileSource creates a source named name reading from root.
func NewFileSource(name, root string) *FileSource {
	return &FileSource{name: name, root: root}
}

func (f *FileSource) Name() string { return f.name }

// seriesDoc is the on-disk document shape. Dates are YYYY-MM-DD.
type seriesDoc struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Year      int          `json:"year"`
	ImageBase string       `json:"image_base"`
	Episodes  []episodeDoc `json:"episodes"`
}

type episodeDoc struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Aired    string     `json:"aired"`
	Season   int        `json:"season"`
	Episode  int        `json:"episode"`
	DVD      *Numbering `json:"dvd,omitempty"`
	Absolute int        `json:"absolute,omitempty"`
}

// FetchSeries reads and decodes one series document.
func (f *FileSource) FetchSeries(ctx context.Context, id string) (*FetchedSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("series id %q: %w", id, ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(f.root, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("series %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read series %s: %w", id, err)
	}

	var doc seriesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode series %s: %w", id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}

	series := &FetchedSeries{
		Provider:  f.name,
		ID:        doc.ID,
		Title:     doc.Title,
		Year:      doc.Year,
		ImageBase: doc.ImageBase,
	}
	for _, ep := range doc.Episodes {
		fetched := FetchedEpisode{
			ProviderEpisodeID: ep.ID,
			Title:             ep.Title,
			Aired:             Numbering{Season: ep.Season, Episode: ep.Episode},
			DVD:               ep.DVD,
			Absolute:          ep.Absolute,
		}
		if ep.Aired != "" {
			aired, err := time.Parse("2006-01-02", ep.Aired)
			if err != nil {
				return nil, fmt.Errorf("series %s episode %s: bad air date %q", id, ep.ID, ep.Aired)
			}
			fetched.AirDate = &aired
		}
		series.Episodes = append(series.Episodes, fetched)
	}
	return series, nil
}

// Search scans all documents in the root for title matches. Linear,
// fine for the document counts a file source holds.
func (f *FileSource) Search(ctx context.Context, title string, year int) ([]SearchResult, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	needle := strings.ToLower(title)
	var results []SearchResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		series, err := f.FetchSeries(ctx, id)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(series.Title), needle) {
			continue
		}
		if year != 0 && series.Year != year {
			continue
		}
		results = append(results, SearchResult{
			Provider: f.name,
			ID:       series.ID,
			Title:    series.Title,
			Year:     series.Year,
		})
	}
	return results, nil
}
