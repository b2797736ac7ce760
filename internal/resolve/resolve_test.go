package resolve

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/migrations"
	"github.com/catarr/catarr/pkg/naming"
)

func setupStore(t *testing.T) *catalog.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))
	return catalog.NewStore(db)
}

func addSeries(t *testing.T, store *catalog.Store, title string, year int) *catalog.Content {
	t.Helper()
	c := &catalog.Content{
		Type:       catalog.ContentTypeSeries,
		Title:      title,
		CleanTitle: naming.CleanTitle(title),
		Year:       year,
	}
	require.NoError(t, store.AddContent(c))
	return c
}

func TestResolve_TagAuthoritative(t *testing.T) {
	store := setupStore(t)
	c := addSeries(t, store, "Show", 2003)
	require.NoError(t, store.SetExternalID(catalog.ExternalID{
		ContentID: c.ID, Provider: "tvdb", Value: "73255",
	}))
	r := New(store, nil)

	// The tag wins even when the directory title disagrees.
	res, err := r.Resolve("/lib/Completely Different Name {tvdb-73255}", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c.ID, res.Content.ID)
}

func TestResolve_TagUnseen(t *testing.T) {
	store := setupStore(t)
	addSeries(t, store, "Show", 2003)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Other Show (2010) {tvdb-99999}", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedNew, res.Kind)
	assert.Equal(t, "Other Show", res.New.Title)
	assert.Equal(t, 2010, res.New.Year)
	require.NotNil(t, res.New.Tag)
	assert.Equal(t, "tvdb", res.New.Tag.Provider)
	assert.Equal(t, "99999", res.New.Tag.Value)
}

func TestResolve_TagFromParseResult(t *testing.T) {
	store := setupStore(t)
	c := addSeries(t, store, "Show", 2003)
	require.NoError(t, store.SetExternalID(catalog.ExternalID{
		ContentID: c.ID, Provider: "tmdb", Value: "603",
	}))
	r := New(store, nil)

	parsed := &naming.Parsed{Tag: &naming.Tag{Provider: "tmdb", Value: "603"}}
	res, err := r.Resolve("/lib/whatever", parsed)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c.ID, res.Content.ID)
}

func TestResolve_TitleYear(t *testing.T) {
	store := setupStore(t)
	c2003 := addSeries(t, store, "Show", 2003)
	c2009 := addSeries(t, store, "Show", 2009)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Show (2003)", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c2003.ID, res.Content.ID)

	res, err = r.Resolve("/lib/Show (2009)", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c2009.ID, res.Content.ID)
}

func TestResolve_NewYearIsNewIdentity(t *testing.T) {
	store := setupStore(t)
	addSeries(t, store, "Show", 2003)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Show (2017)", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedNew, res.Kind)
	assert.Equal(t, 2017, res.New.Year)
	assert.Equal(t, "show", res.New.CleanTitle)
}

func TestResolve_NoYearUniqueTitle(t *testing.T) {
	store := setupStore(t)
	c := addSeries(t, store, "Unique Show", 2003)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Unique Show", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c.ID, res.Content.ID)
}

func TestResolve_NoYearAmbiguous(t *testing.T) {
	store := setupStore(t)
	addSeries(t, store, "Show", 2003)
	addSeries(t, store, "Show", 2009)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Show", nil)
	require.NoError(t, err)
	assert.Equal(t, Ambiguous, res.Kind)
	assert.Len(t, res.Candidates, 2)
}

func TestResolve_FuzzyNearCertain(t *testing.T) {
	store := setupStore(t)
	c := addSeries(t, store, "The Long Dark Winter Chronicles", 2003)
	r := New(store, nil)

	// Singular/plural drift survives normalization but scores near 1.
	res, err := r.Resolve("/lib/The Long Dark Winter Chronicle (2003)", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedExisting, res.Kind)
	assert.Equal(t, c.ID, res.Content.ID)
}

func TestResolve_FuzzyNumberMismatch(t *testing.T) {
	store := setupStore(t)
	addSeries(t, store, "Show 2", 2003)
	r := New(store, nil)

	res, err := r.Resolve("/lib/Show 3 (2005)", nil)
	require.NoError(t, err)
	assert.Equal(t, ResolvedNew, res.Kind)
}

func TestResolve_EmptyTitle(t *testing.T) {
	store := setupStore(t)
	r := New(store, nil)

	res, err := r.Resolve("/lib/(2003)", nil)
	require.NoError(t, err)
	assert.Equal(t, NoMatch, res.Kind)
}

func TestRankCandidates(t *testing.T) {
	exact := &catalog.Content{CleanTitle: "show name"}
	near := &catalog.Content{CleanTitle: "show names"}
	far := &catalog.Content{CleanTitle: "completely unrelated"}

	ranked := rankCandidates("show name", []*catalog.Content{far, near, exact})
	require.NotEmpty(t, ranked)
	assert.Same(t, exact, ranked[0].Content)
	assert.InDelta(t, 1.0, ranked[0].Score, 0.001)
	for _, m := range ranked {
		assert.NotSame(t, far, m.Content, "unrelated title should fall below the floor")
	}
}
