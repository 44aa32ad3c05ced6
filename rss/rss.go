package rss

import "time"

// Version is the only protocol version we read or write
const Version = "2.0"

// PubDateFormat is the canonical textual form items store their date in
const PubDateFormat = time.RFC1123Z

// Feed is the in-memory form of the whole feed document
type Feed struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	Items       []Item
}

// Item is one feed entry derived from one CMS record. Link doubles as the
// guid; there is no separate identity scheme.
type Item struct {
	Title       string
	Link        string
	GUID        string
	Description string
	PubDate     string
	ImageURL    string
	Body        string
}

// Default returns the hard-coded fallback feed used when no document is
// stored or the stored one cannot be parsed.
func Default(title, link, description, selfLink string) *Feed {
	return &Feed{
		Title:       title,
		Link:        link,
		Description: description,
		SelfLink:    selfLink,
		Items:       []Item{},
	}
}

// ParsePubDate parses the stored pubDate text. Accepts the canonical
// RFC 1123 forms plus RFC 3339, which is what the CMS emits.
func ParsePubDate(value string) (time.Time, error) {
	var err error
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
