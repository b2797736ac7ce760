// Package completeness computes per-episode present/missing/future
// status for a series. It is a pure read-side transformation: callers
// hand it the expected rows, the mapped key set, and the clock; it
// never touches the store itself.
package completeness

import (
	"sort"
	"time"

	"github.com/catarr/catarr/internal/catalog"
)

// Status classifies one expected episode.
type Status string

const (
	Present Status = "present"
	Missing Status = "missing"
	Future  Status = "future"
)

// Episode is one row of the report.
type Episode struct {
	Episode int
	Status  Status
	Title   string
	AirDate *time.Time
}

// Season groups report rows. Episodes are ordered by number.
type Season struct {
	Season   int
	Episodes []Episode
}

// Report is the completeness view of one series, seasons ascending.
// Seasons with no expected episodes and no mapped keys do not appear.
type Report struct {
	Seasons []Season
}

// Totals counts episodes by status across the whole report.
func (r Report) Totals() (present, missing, future int) {
	for _, season := range r.Seasons {
		for _, ep := range season.Episodes {
			switch ep.Status {
			case Present:
				present++
			case Missing:
				missing++
			case Future:
				future++
			}
		}
	}
	return
}

// Compute builds the report. An episode is Present when any mapping
// references its key, through any shape; Missing when expected,
// unmapped, and its air date is unset or passed; Future otherwise.
// Mapped keys with no expected row still show Present, so orphaned
// mappings stay visible.
func Compute(expected []*catalog.ExpectedEpisode, mapped map[catalog.EpisodeKey]bool, now time.Time) Report {
	bySeason := make(map[int][]Episode)
	seen := make(map[catalog.EpisodeKey]bool, len(expected))

	for _, row := range expected {
		key := row.Key()
		seen[key] = true

		status := Missing
		switch {
		case mapped[key]:
			status = Present
		case row.AirDate != nil && row.AirDate.After(now):
			status = Future
		}
		bySeason[key.Season] = append(bySeason[key.Season], Episode{
			Episode: key.Episode,
			Status:  status,
			Title:   row.Title,
			AirDate: row.AirDate,
		})
	}

	// Mapped but no longer expected: report rather than hide.
	for key := range mapped {
		if seen[key] {
			continue
		}
		bySeason[key.Season] = append(bySeason[key.Season], Episode{
			Episode: key.Episode,
			Status:  Present,
		})
	}

	report := Report{Seasons: make([]Season, 0, len(bySeason))}
	for season, episodes := range bySeason {
		sort.Slice(episodes, func(i, j int) bool { return episodes[i].Episode < episodes[j].Episode })
		report.Seasons = append(report.Seasons, Season{Season: season, Episodes: episodes})
	}
	sort.Slice(report.Seasons, func(i, j int) bool { return report.Seasons[i].Season < report.Seasons[j].Season })
	return report
}

// DisplayPolicy filters a report for presentation. The zero value
// shows everything.
type DisplayPolicy struct {
	HideMissing bool
	HideFuture  bool
	HideEmpty   bool // drop seasons with no Present episode
}

// Filter applies the policy. Filtering happens after Compute; it never
// changes what an episode's status is, only whether it is shown.
func Filter(report Report, policy DisplayPolicy) Report {
	out := Report{}
	for _, season := range report.Seasons {
		kept := make([]Episode, 0, len(season.Episodes))
		anyPresent := false
		for _, ep := range season.Episodes {
			if ep.Status == Present {
				anyPresent = true
			}
			if policy.HideMissing && ep.Status == Missing {
				continue
			}
			if policy.HideFuture && ep.Status == Future {
				continue
			}
			kept = append(kept, ep)
		}
		if len(kept) == 0 {
			continue
		}
		if policy.HideEmpty && !anyPresent {
			continue
		}
		out.Seasons = append(out.Seasons, Season{Season: season.Season, Episodes: kept})
	}
	return out
}
