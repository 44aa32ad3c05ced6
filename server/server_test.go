package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedsync/engine"
	"feedsync/models"
	"feedsync/rss"
	"feedsync/sanitize"
	"feedsync/server"
	"feedsync/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionID = "col-1"

// memBlob is an in-memory BlobStore recording traffic
type memBlob struct {
	data []byte
	gets int
	puts int
}

func (m *memBlob) Get(ctx context.Context) ([]byte, error) {
	m.gets++
	if m.data == nil {
		return nil, store.ErrNotExist
	}
	return m.data, nil
}

func (m *memBlob) Put(ctx context.Context, data []byte) error {
	m.puts++
	m.data = data
	return nil
}

// fakeFetcher returns canned CMS records and records calls
type fakeFetcher struct {
	records map[string]*models.CMSItem
	err     error
	calls   int
}

func (f *fakeFetcher) Item(ctx context.Context, collectionID, itemID string) (*models.CMSItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[itemID]
	if !ok {
		return nil, errors.New("no such item")
	}
	return record, nil
}

func newTestServer(fetcher *fakeFetcher) (*memBlob, *store.FeedStore, *fiber.App) {
	blobs := &memBlob{}
	fallback := rss.Default("Example Blog", "https://example.com", "Posts", "https://cdn.example.com/feed.xml")
	feedStore := store.NewFeedStore(blobs, fallback)
	eng := engine.New(feedStore, sanitize.New(), "https://example.com/blog/%s")

	app := server.Server(&server.ServerConfig{
		Engine:       eng,
		Fetcher:      fetcher,
		CollectionID: collectionID,
	})

	return blobs, feedStore, app
}

func postWebhook(t *testing.T, app *fiber.App, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func event(trigger, collection, itemID, slug string) []byte {
	data, _ := json.Marshal(models.WebhookEvent{
		TriggerType: trigger,
		Payload: models.EventPayload{
			CollectionID: collection,
			ItemID:       itemID,
			Slug:         slug,
		},
	})
	return data
}

func TestWebhookCreateFlow(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string]*models.CMSItem{
		"item-1": {
			Name:        "Post A",
			Slug:        "a",
			Summary:     "About Post A",
			PublishedOn: "2024-01-01T00:00:00Z",
			Body:        "<p>Post A</p>",
		},
	}}
	_, feedStore, app := newTestServer(fetcher)

	resp := postWebhook(t, app, event(models.TriggerItemCreated, collectionID, "item-1", "a"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ack, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(ack))

	feed := feedStore.Get(context.Background())
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "https://example.com/blog/a", feed.Items[0].GUID)
}

func TestWebhookDeleteFlow(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string]*models.CMSItem{
		"item-1": {Name: "Post A", Slug: "a", PublishedOn: "2024-01-01T00:00:00Z"},
	}}
	_, feedStore, app := newTestServer(fetcher)

	resp := postWebhook(t, app, event(models.TriggerItemCreated, collectionID, "item-1", "a"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postWebhook(t, app, event(models.TriggerItemDeleted, collectionID, "item-1", "a"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	feed := feedStore.Get(context.Background())
	assert.Empty(t, feed.Items)

	// Deletion never consults the CMS
	assert.Equal(t, 1, fetcher.calls)
}

func TestWebhookIgnoresOtherCollections(t *testing.T) {
	fetcher := &fakeFetcher{}
	blobs, _, app := newTestServer(fetcher)

	resp := postWebhook(t, app, event(models.TriggerItemCreated, "col-other", "item-1", "a"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ack, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ignored"}`, string(ack))

	// No CMS fetch and no store traffic at all
	assert.Zero(t, fetcher.calls)
	assert.Zero(t, blobs.gets)
	assert.Zero(t, blobs.puts)
}

func TestWebhookRejectsMalformedEnvelope(t *testing.T) {
	fetcher := &fakeFetcher{}
	blobs, _, app := newTestServer(fetcher)

	resp := postWebhook(t, app, []byte(`{"triggerType": `))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, blobs.puts)
}

func TestWebhookRejectsUnknownTrigger(t *testing.T) {
	fetcher := &fakeFetcher{}
	blobs, _, app := newTestServer(fetcher)

	resp := postWebhook(t, app, event("collection-truncated", collectionID, "item-1", "a"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, blobs.puts)
}

func TestWebhookFetchFailureIsServerError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("cms unavailable")}
	blobs, _, app := newTestServer(fetcher)

	resp := postWebhook(t, app, event(models.TriggerItemChanged, collectionID, "item-1", "a"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Error synchronizing feed", string(body))
	assert.Zero(t, blobs.puts)
}

func TestHealthz(t *testing.T) {
	_, _, app := newTestServer(&fakeFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
