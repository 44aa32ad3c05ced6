// Package engine turns content events into feed mutations: read the stored
// document, apply the change in memory, write the whole document back.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"feedsync/models"
	"feedsync/rss"
	"feedsync/sanitize"
	"feedsync/store"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// NoContentPlaceholder is stored as the body when the CMS record has none
const NoContentPlaceholder = "No content"

// storeTimeout bounds one full get-mutate-put cycle against blob storage
const storeTimeout = 15 * time.Second

type Engine struct {
	store        *store.FeedStore
	sanitizer    *sanitize.Sanitizer
	linkTemplate string
}

func New(feedStore *store.FeedStore, sanitizer *sanitize.Sanitizer, linkTemplate string) *Engine {
	return &Engine{
		store:        feedStore,
		sanitizer:    sanitizer,
		linkTemplate: linkTemplate,
	}
}

// Upsert replaces or appends the feed item for the given record and
// persists the feed. Draft and archived records are never represented in
// the feed; they are skipped without touching storage.
func (e *Engine) Upsert(ctx context.Context, record *models.CMSItem) error {
	if record.Archived || record.Draft {
		log.WithFields(log.Fields{
			"slug":     record.Slug,
			"archived": record.Archived,
			"draft":    record.Draft,
		}).Info("Skipping archived or draft item")
		return nil
	}

	item := e.buildItem(record)

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	feed := e.store.Get(ctx)
	UpsertItem(feed, item)
	SortItems(feed)

	if err := e.store.Put(ctx, feed); err != nil {
		return fmt.Errorf("persisting feed after upsert of %s: %w", item.GUID, err)
	}

	log.WithFields(log.Fields{
		"guid":  item.GUID,
		"items": len(feed.Items),
	}).Info("Upserted feed item")
	return nil
}

// Delete removes the item whose guid derives from the slug and persists the
// feed. The guid comes from the same link template as upsert, so deletion
// never needs the CMS record, which may already be gone. An absent guid is
// a logged no-op, not an error.
func (e *Engine) Delete(ctx context.Context, slug string) error {
	guid := fmt.Sprintf(e.linkTemplate, slug)

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	feed := e.store.Get(ctx)
	if !RemoveItem(feed, guid) {
		log.WithFields(log.Fields{
			"guid": guid,
		}).Info("Item not present in feed, nothing to delete")
	}
	SortItems(feed)

	if err := e.store.Put(ctx, feed); err != nil {
		return fmt.Errorf("persisting feed after delete of %s: %w", guid, err)
	}

	log.WithFields(log.Fields{
		"guid":  guid,
		"items": len(feed.Items),
	}).Info("Deleted feed item")
	return nil
}

func (e *Engine) buildItem(record *models.CMSItem) rss.Item {
	link := fmt.Sprintf(e.linkTemplate, record.Slug)

	body := record.Body
	if body == "" {
		body = NoContentPlaceholder
	}

	return rss.Item{
		Title:       record.Name,
		Link:        link,
		GUID:        link,
		Description: record.Summary,
		PubDate:     normalizePubDate(record.PublishedOn),
		ImageURL:    record.ImageURL,
		Body:        e.sanitizer.Sanitize(body),
	}
}

// normalizePubDate converts the CMS date to the canonical stored form.
// A missing or unparsable date falls back to the event receipt time.
func normalizePubDate(value string) string {
	if value == "" {
		return time.Now().UTC().Format(rss.PubDateFormat)
	}
	t, err := rss.ParsePubDate(value)
	if err != nil {
		log.WithFields(log.Fields{
			"value": value,
			"error": err,
		}).Warn("Could not parse publication date, falling back to now")
		return time.Now().UTC().Format(rss.PubDateFormat)
	}
	return t.Format(rss.PubDateFormat)
}

// UpsertItem replaces the item with the same guid in place, or appends
func UpsertItem(feed *rss.Feed, item rss.Item) {
	_, index, found := lo.FindIndexOf(feed.Items, func(existing rss.Item) bool {
		return existing.GUID == item.GUID
	})
	if found {
		feed.Items[index] = item
		return
	}
	feed.Items = append(feed.Items, item)
}

// RemoveItem drops the item with the given guid. Reports whether anything
// was removed.
func RemoveItem(feed *rss.Feed, guid string) bool {
	before := len(feed.Items)
	feed.Items = lo.Reject(feed.Items, func(existing rss.Item, _ int) bool {
		return existing.GUID == guid
	})
	return len(feed.Items) != before
}

// SortItems orders the feed newest first. The sort is stable so items with
// equal dates keep their relative order and re-sorting is idempotent;
// items with unparsable dates sink to the end.
func SortItems(feed *rss.Feed) {
	sort.SliceStable(feed.Items, func(i, j int) bool {
		ti, _ := rss.ParsePubDate(feed.Items[i].PubDate)
		tj, _ := rss.ParsePubDate(feed.Items[j].PubDate)
		return ti.After(tj)
	})
}
