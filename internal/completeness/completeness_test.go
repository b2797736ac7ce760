package completeness

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/catarr/catarr/internal/catalog"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func expected(season, episode int, title string, aired *time.Time) *catalog.ExpectedEpisode {
	return &catalog.ExpectedEpisode{Season: season, Episode: episode, Title: title, AirDate: aired}
}

func at(daysFromNow int) *time.Time {
	t := now.AddDate(0, 0, daysFromNow)
	return &t
}

func TestCompute_Statuses(t *testing.T) {
	rows := []*catalog.ExpectedEpisode{
		expected(1, 1, "Pilot", at(-700)),
		expected(1, 2, "Second", at(-693)),
		expected(2, 5, "Mid", at(365)),
	}
	mapped := map[catalog.EpisodeKey]bool{
		{Season: 1, Episode: 1}: true,
	}

	got := Compute(rows, mapped, now)

	want := Report{Seasons: []Season{
		{Season: 1, Episodes: []Episode{
			{Episode: 1, Status: Present, Title: "Pilot", AirDate: at(-700)},
			{Episode: 2, Status: Missing, Title: "Second", AirDate: at(-693)},
		}},
		{Season: 2, Episodes: []Episode{
			{Episode: 5, Status: Future, Title: "Mid", AirDate: at(365)},
		}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_AirDateBoundary(t *testing.T) {
	// Unset or passed air date means Missing, not Future.
	rows := []*catalog.ExpectedEpisode{
		expected(2, 5, "No date", nil),
		expected(2, 6, "Airs this instant", &now),
		expected(2, 7, "Airs next year", at(365)),
	}

	got := Compute(rows, nil, now)
	statuses := map[int]Status{}
	for _, ep := range got.Seasons[0].Episodes {
		statuses[ep.Episode] = ep.Status
	}
	if statuses[5] != Missing || statuses[6] != Missing || statuses[7] != Future {
		t.Errorf("statuses = %v, want 5/6 missing, 7 future", statuses)
	}
}

func TestCompute_MultiEpisodeCountsEach(t *testing.T) {
	rows := []*catalog.ExpectedEpisode{
		expected(1, 1, "A", at(-10)),
		expected(1, 2, "B", at(-9)),
		expected(1, 3, "C", at(-8)),
	}
	// One file mapped to E01+E02 marks both present.
	mapped := map[catalog.EpisodeKey]bool{
		{Season: 1, Episode: 1}: true,
		{Season: 1, Episode: 2}: true,
	}

	got := Compute(rows, mapped, now)
	present, missing, future := got.Totals()
	if present != 2 || missing != 1 || future != 0 {
		t.Errorf("totals = %d/%d/%d, want 2/1/0", present, missing, future)
	}
}

func TestCompute_EmptySeasonNotReported(t *testing.T) {
	rows := []*catalog.ExpectedEpisode{expected(1, 1, "A", at(-10))}

	got := Compute(rows, nil, now)
	if len(got.Seasons) != 1 || got.Seasons[0].Season != 1 {
		t.Errorf("seasons = %+v, want only season 1", got.Seasons)
	}
}

func TestCompute_OrphanedMappingStaysVisible(t *testing.T) {
	rows := []*catalog.ExpectedEpisode{expected(1, 1, "A", at(-10))}
	mapped := map[catalog.EpisodeKey]bool{
		{Season: 1, Episode: 1}: true,
		{Season: 1, Episode: 9}: true, // mapping outlived its expected row
	}

	got := Compute(rows, mapped, now)
	want := Report{Seasons: []Season{
		{Season: 1, Episodes: []Episode{
			{Episode: 1, Status: Present, Title: "A", AirDate: at(-10)},
			{Episode: 9, Status: Present},
		}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// Present, Missing, and Future are exclusive and cover every expected
// row exactly once.
func TestCompute_StatusPartition(t *testing.T) {
	rows := []*catalog.ExpectedEpisode{}
	for season := 1; season <= 3; season++ {
		for ep := 1; ep <= 10; ep++ {
			var aired *time.Time
			if ep%3 == 0 {
				aired = at(ep * 30)
			} else {
				aired = at(-ep * 30)
			}
			rows = append(rows, expected(season, ep, "", aired))
		}
	}
	mapped := map[catalog.EpisodeKey]bool{}
	for ep := 1; ep <= 5; ep++ {
		mapped[catalog.EpisodeKey{Season: 2, Episode: ep}] = true
	}

	got := Compute(rows, mapped, now)
	present, missing, future := got.Totals()
	if sum := present + missing + future; sum != len(rows) {
		t.Errorf("sum = %d, want %d", sum, len(rows))
	}
	// Every mapped key is Present, never Missing or Future.
	for _, season := range got.Seasons {
		for _, ep := range season.Episodes {
			key := catalog.EpisodeKey{Season: season.Season, Episode: ep.Episode}
			if mapped[key] && ep.Status != Present {
				t.Errorf("mapped %v has status %s", key, ep.Status)
			}
		}
	}
}

func TestFilter(t *testing.T) {
	report := Compute([]*catalog.ExpectedEpisode{
		expected(1, 1, "A", at(-10)),
		expected(1, 2, "B", at(-9)),
		expected(2, 1, "C", at(30)),
		expected(3, 1, "D", at(-5)),
	}, map[catalog.EpisodeKey]bool{{Season: 1, Episode: 1}: true}, now)

	t.Run("hide missing", func(t *testing.T) {
		got := Filter(report, DisplayPolicy{HideMissing: true})
		present, missing, _ := got.Totals()
		if present != 1 || missing != 0 {
			t.Errorf("present/missing = %d/%d, want 1/0", present, missing)
		}
	})

	t.Run("hide future drops season 2", func(t *testing.T) {
		got := Filter(report, DisplayPolicy{HideFuture: true})
		for _, s := range got.Seasons {
			if s.Season == 2 {
				t.Error("season 2 should disappear once its only episode is filtered")
			}
		}
	})

	t.Run("hide empty seasons", func(t *testing.T) {
		got := Filter(report, DisplayPolicy{HideEmpty: true})
		if len(got.Seasons) != 1 || got.Seasons[0].Season != 1 {
			t.Errorf("seasons = %+v, want only season 1", got.Seasons)
		}
	})

	t.Run("zero policy is identity", func(t *testing.T) {
		if diff := cmp.Diff(report, Filter(report, DisplayPolicy{})); diff != "" {
			t.Errorf("filter changed report (-want +got):\n%s", diff)
		}
	})
}
