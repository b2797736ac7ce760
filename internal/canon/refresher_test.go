package canon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/provider"
	"github.com/catarr/catarr/internal/provider/mocks"
)

func mockSource(ctrl *gomock.Controller, name string) *mocks.MockSource {
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Name().Return(name).AnyTimes()
	return src
}

func TestRefreshSeries_FetchesPerPolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	c := addSeries(t, store, catalog.OrderingAired)
	require.NoError(t, store.SetExternalID(catalog.ExternalID{ContentID: c.ID, Provider: "tvdb", Value: "73255"}))
	require.NoError(t, store.SetExternalID(catalog.ExternalID{ContentID: c.ID, Provider: "tmdb", Value: "603"}))

	tvdb := mockSource(ctrl, "tvdb")
	tmdb := mockSource(ctrl, "tmdb")
	tvdb.EXPECT().FetchSeries(gomock.Any(), "73255").
		Return(fetched("tvdb", "73255", airedEp("e1", 1, 1, "Pilot")), nil)
	tmdb.EXPECT().FetchSeries(gomock.Any(), "603").
		Return(fetched("tmdb", "603", airedEp("x1", 1, 1, "Pilot")), nil)

	r := NewRefresher(store, New(store, nil, nil), []provider.Source{tvdb, tmdb}, nil)
	result, err := r.RefreshSeries(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, "tvdb", result.Provider)
	assert.Equal(t, 1, result.Episodes)
	assert.False(t, result.Mismatch)
}

func TestRefreshSeries_FallbackWhenCanonicalUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	c := addSeries(t, store, catalog.OrderingAired)
	require.NoError(t, store.SetExternalID(catalog.ExternalID{ContentID: c.ID, Provider: "tvdb", Value: "73255"}))
	require.NoError(t, store.SetExternalID(catalog.ExternalID{ContentID: c.ID, Provider: "tmdb", Value: "603"}))

	tvdb := mockSource(ctrl, "tvdb")
	tmdb := mockSource(ctrl, "tmdb")
	tvdb.EXPECT().FetchSeries(gomock.Any(), "73255").Return(nil, provider.ErrNotFound)
	tmdb.EXPECT().FetchSeries(gomock.Any(), "603").
		Return(fetched("tmdb", "603", airedEp("x1", 1, 1, "Pilot")), nil)

	r := NewRefresher(store, New(store, nil, nil), []provider.Source{tvdb, tmdb}, nil)
	result, err := r.RefreshSeries(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, "tmdb", result.Provider)
}

func TestRefreshSeries_NoExternalIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	c := addSeries(t, store, catalog.OrderingAired)

	// Sources exist but nothing identifies the series to them.
	r := NewRefresher(store, New(store, nil, nil), []provider.Source{
		mockSource(ctrl, "tvdb"), mockSource(ctrl, "tmdb"),
	}, nil)
	_, err := r.RefreshSeries(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNoProviderData)
}

func TestRefreshSeries_UnknownContent(t *testing.T) {
	store := setupStore(t)
	r := NewRefresher(store, New(store, nil, nil), nil, nil)

	_, err := r.RefreshSeries(context.Background(), 9999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
