package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
)

type fakeCache struct {
	prices  map[string]float64
	getErr  error
	setErr  error
	setLog  []string
	history map[string]float64
}

func newFakeCache() *fakeCache {
	return &fakeCache{prices: map[string]float64{}, history: map[string]float64{}}
}

func (c *fakeCache) Get(_ context.Context, title string) (float64, bool, error) {
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	price, ok := c.prices[title]
	return price, ok, nil
}

func (c *fakeCache) Set(_ context.Context, title string, price float64) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.prices[title] = price
	c.setLog = append(c.setLog, title)
	c.history[title] = price
	return nil
}

type fakeDownloader struct {
	data map[string][]byte
	err  error
	urls []string
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	return d.data[url], nil
}

type fakeSink struct {
	writes map[string][]byte
	err    error
}

func newFakeSink() *fakeSink {
	return &fakeSink{writes: map[string][]byte{}}
}

func (s *fakeSink) Write(_ context.Context, path string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.writes[path] = data
	return nil
}

func TestAcceptNewProduct(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	dl := &fakeDownloader{data: map[string][]byte{
		"https://cdn.example.com/widget.jpg": []byte("jpegbytes"),
	}}
	sink := newFakeSink()
	f := New(cache, dl, sink, zap.NewNop())

	record, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title:    "Blue Widget",
		Price:    19.99,
		ImageURL: "https://cdn.example.com/widget.jpg",
	})

	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, catalog.Record{
		Title:     "Blue Widget",
		Price:     19.99,
		ImagePath: "images/blue_widget.jpg",
	}, record)
	require.Equal(t, 19.99, cache.prices["Blue Widget"])
	require.Equal(t, []byte("jpegbytes"), sink.writes["images/blue_widget.jpg"])
}

func TestAcceptPriceChange(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.prices["Blue Widget"] = 19.99
	dl := &fakeDownloader{data: map[string][]byte{
		"https://cdn.example.com/widget.jpg": []byte("jpegbytes"),
	}}
	f := New(cache, dl, newFakeSink(), zap.NewNop())

	record, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title:    "Blue Widget",
		Price:    17.49,
		ImageURL: "https://cdn.example.com/widget.jpg",
	})

	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, 17.49, record.Price)
	require.Equal(t, 17.49, cache.prices["Blue Widget"])
}

func TestRejectUnchangedPrice(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.prices["Blue Widget"] = 19.99
	dl := &fakeDownloader{}
	sink := newFakeSink()
	f := New(cache, dl, sink, zap.NewNop())

	_, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title:    "Blue Widget",
		Price:    19.99,
		ImageURL: "https://cdn.example.com/widget.jpg",
	})

	require.NoError(t, err)
	require.False(t, accepted)
	require.Empty(t, dl.urls, "rejected candidates must not trigger downloads")
	require.Empty(t, cache.setLog, "rejected candidates must not touch the cache")
	require.Empty(t, sink.writes)
}

func TestAcceptDownloadFailure(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	boom := errors.New("connection refused")
	dl := &fakeDownloader{err: boom}
	f := New(cache, dl, newFakeSink(), zap.NewNop())

	_, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title:    "Blue Widget",
		Price:    19.99,
		ImageURL: "https://cdn.example.com/widget.jpg",
	})

	require.False(t, accepted)
	var de *catalog.DownloadError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "https://cdn.example.com/widget.jpg", de.URL)
	require.ErrorIs(t, err, boom)
	// The cache is updated before the download is attempted.
	require.Equal(t, 19.99, cache.prices["Blue Widget"])
}

func TestAcceptSinkFailure(t *testing.T) {
	t.Parallel()

	sink := newFakeSink()
	sink.err = errors.New("disk full")
	dl := &fakeDownloader{data: map[string][]byte{"u": []byte("x")}}
	f := New(newFakeCache(), dl, sink, zap.NewNop())

	_, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title: "Widget", Price: 1, ImageURL: "u",
	})

	require.False(t, accepted)
	var de *catalog.DownloadError
	require.ErrorAs(t, err, &de)
}

func TestAcceptCacheGetFailure(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	f := New(cache, &fakeDownloader{}, newFakeSink(), zap.NewNop())

	_, accepted, err := f.Accept(context.Background(), catalog.Candidate{
		Title: "Widget", Price: 1, ImageURL: "u",
	})

	require.False(t, accepted)
	require.ErrorIs(t, err, cache.getErr)
}

func TestImagePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Blue Widget", "images/blue_widget.jpg"},
		{"ESPRESSO MACHINE", "images/espresso_machine.jpg"},
		{"one", "images/one.jpg"},
		{"A  B", "images/a__b.jpg"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ImagePath(tt.title))
	}
}
