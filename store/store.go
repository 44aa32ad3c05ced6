// Package store persists the feed document as a single blob object.
package store

import (
	"context"
	"errors"
	"fmt"

	"feedsync/rss"

	log "github.com/sirupsen/logrus"
)

// ErrNotExist is returned by a BlobStore when no feed object is stored yet
var ErrNotExist = errors.New("feed object does not exist")

// BlobStore reads and writes the raw feed document
type BlobStore interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
}

// FeedStore wraps a BlobStore with parsing and the fail-open read policy:
// on-missing-or-corrupt -> default. A missing or unparsable document is
// logged and replaced with the fallback feed so a synchronization attempt
// is never blocked by earlier corruption, at the cost of discarding the
// corrupted document on the next write.
//
// Put is an unconditional overwrite with last-writer-wins semantics. Two
// overlapping read-modify-write cycles can lose the earlier update; see
// the README for the accepted risk and the conditional-write mitigation
// path.
type FeedStore struct {
	blobs    BlobStore
	fallback rss.Feed
}

func NewFeedStore(blobs BlobStore, fallback *rss.Feed) *FeedStore {
	return &FeedStore{blobs: blobs, fallback: *fallback}
}

// Get fetches and parses the stored feed document. Never fails; the
// fallback feed is returned instead and the discarded error is logged.
func (s *FeedStore) Get(ctx context.Context) *rss.Feed {
	data, err := s.blobs.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			log.Info("No feed document stored yet, starting from the default feed")
		} else {
			log.WithFields(log.Fields{
				"error": err,
			}).Warn("Discarding unreadable feed document, starting from the default feed")
		}
		return s.defaultFeed()
	}

	feed, err := rss.Parse(data)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Warn("Discarding unparsable feed document, starting from the default feed")
		return s.defaultFeed()
	}

	return feed
}

// Put serializes the feed and overwrites the stored document
func (s *FeedStore) Put(ctx context.Context, feed *rss.Feed) error {
	data, err := rss.Serialize(feed)
	if err != nil {
		return fmt.Errorf("serializing feed: %w", err)
	}
	if err := s.blobs.Put(ctx, data); err != nil {
		return fmt.Errorf("writing feed object: %w", err)
	}
	return nil
}

func (s *FeedStore) defaultFeed() *rss.Feed {
	feed := s.fallback
	feed.Items = []rss.Item{}
	return &feed
}
