package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"feedsync/rss"
	"feedsync/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBlob is an in-memory BlobStore recording traffic
type memBlob struct {
	data   []byte
	getErr error
	putErr error
	gets   int
	puts   int
}

func (m *memBlob) Get(ctx context.Context) ([]byte, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.data == nil {
		return nil, store.ErrNotExist
	}
	return m.data, nil
}

func (m *memBlob) Put(ctx context.Context, data []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data = data
	return nil
}

func fallbackFeed() *rss.Feed {
	return rss.Default("Example Blog", "https://example.com", "Posts", "https://cdn.example.com/feed.xml")
}

func TestGetReturnsDefaultWhenMissing(t *testing.T) {
	feedStore := store.NewFeedStore(&memBlob{}, fallbackFeed())

	feed := feedStore.Get(context.Background())

	assert.Equal(t, "Example Blog", feed.Title)
	assert.NotNil(t, feed.Items)
	assert.Empty(t, feed.Items)
}

func TestGetReturnsDefaultWhenCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not xml", data: []byte("definitely not a feed")},
		{name: "wrong root", data: []byte("<html><body>503</body></html>")},
		{name: "truncated", data: []byte(`<rss version="2.0"><channel><title>o`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedStore := store.NewFeedStore(&memBlob{data: tt.data}, fallbackFeed())

			feed := feedStore.Get(context.Background())

			assert.Equal(t, "Example Blog", feed.Title)
			assert.Empty(t, feed.Items)
		})
	}
}

func TestGetReturnsDefaultWhenStorageFails(t *testing.T) {
	blobs := &memBlob{getErr: errors.New("connection refused")}
	feedStore := store.NewFeedStore(blobs, fallbackFeed())

	feed := feedStore.Get(context.Background())

	assert.Equal(t, "Example Blog", feed.Title)
	assert.Empty(t, feed.Items)
}

func TestGetReturnsFreshDefaultEachTime(t *testing.T) {
	feedStore := store.NewFeedStore(&memBlob{}, fallbackFeed())

	first := feedStore.Get(context.Background())
	first.Items = append(first.Items, rss.Item{GUID: "a"})

	second := feedStore.Get(context.Background())
	assert.Empty(t, second.Items)
}

func TestPutGetRoundTrip(t *testing.T) {
	blobs := &memBlob{}
	feedStore := store.NewFeedStore(blobs, fallbackFeed())

	feed := fallbackFeed()
	feed.Items = append(feed.Items, rss.Item{
		Title:   "Hello",
		Link:    "https://example.com/blog/hello",
		GUID:    "https://example.com/blog/hello",
		PubDate: "Mon, 01 Jan 2024 00:00:00 +0000",
		Body:    "<p>Hello</p>",
	})

	require.NoError(t, feedStore.Put(context.Background(), feed))
	assert.Equal(t, 1, blobs.puts)

	stored := feedStore.Get(context.Background())
	assert.Equal(t, feed, stored)
}

func TestPutPropagatesStorageError(t *testing.T) {
	blobs := &memBlob{putErr: errors.New("access denied")}
	feedStore := store.NewFeedStore(blobs, fallbackFeed())

	err := feedStore.Put(context.Background(), fallbackFeed())
	assert.ErrorContains(t, err, "access denied")
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	blobs := store.NewFileStore(path)

	_, err := blobs.Get(context.Background())
	assert.ErrorIs(t, err, store.ErrNotExist)

	require.NoError(t, blobs.Put(context.Background(), []byte("<rss/>")))

	data, err := blobs.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("<rss/>"), data)

	// Overwrite replaces the whole document
	require.NoError(t, blobs.Put(context.Background(), []byte("<rss version=\"2.0\"/>")))
	data, err = blobs.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("<rss version=\"2.0\"/>"), data)
}
