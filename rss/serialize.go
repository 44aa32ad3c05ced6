package rss

import (
	"encoding/xml"
	"fmt"
)

// Extension namespaces declared on the rss element
const (
	atomNS    = "http://www.w3.org/2005/Atom"
	mediaNS   = "http://search.yahoo.com/mrss/"
	contentNS = "http://purl.org/rss/1.0/modules/content/"
)

// Marshal-side document shape. Prefixed element names only work in one
// direction with encoding/xml, so parsing uses a separate set of structs
// with namespace-qualified tags below.
type rssOut struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	MediaNS   string     `xml:"xmlns:media,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	Channel   channelOut `xml:"channel"`
}

type channelOut struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	SelfLink    atomLinkOut `xml:"atom:link"`
	Items       []itemOut   `xml:"item"`
}

type atomLinkOut struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type itemOut struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	GUID        guidOut    `xml:"guid"`
	Description string     `xml:"description"`
	PubDate     string     `xml:"pubDate"`
	Media       *mediaOut  `xml:"media:content,omitempty"`
	Thumbnail   *mediaOut  `xml:"media:thumbnail,omitempty"`
	Content     contentOut `xml:"content:encoded"`
}

type guidOut struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type mediaOut struct {
	URL    string `xml:"url,attr"`
	Medium string `xml:"medium,attr,omitempty"`
}

// content:encoded redeclares its namespace on the element itself, matching
// the document shape the feed has always been published with.
type contentOut struct {
	ContentNS string `xml:"xmlns:content,attr"`
	Body      string `xml:",cdata"`
}

// Unmarshal-side document shape. The decoder resolves prefixes to namespace
// URLs, so extension elements are matched with "url local" tags. SelfLink
// must precede Link: an unqualified "link" tag matches any namespace, and
// field order decides which one wins.
type rssIn struct {
	XMLName xml.Name  `xml:"rss"`
	Version string    `xml:"version,attr"`
	Channel channelIn `xml:"channel"`
}

type channelIn struct {
	Title       string     `xml:"title"`
	Description string     `xml:"description"`
	SelfLink    atomLinkIn `xml:"http://www.w3.org/2005/Atom link"`
	Link        string     `xml:"link"`
	Items       []itemIn   `xml:"item"`
}

type atomLinkIn struct {
	Href string `xml:"href,attr"`
}

type itemIn struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Media       *mediaIn `xml:"http://search.yahoo.com/mrss/ content"`
	Content     string   `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
}

type mediaIn struct {
	URL string `xml:"url,attr"`
}

// Serialize produces the feed document: xml header, two-space indentation,
// the three extension namespaces declared on the rss element, HTML bodies
// wrapped in CDATA so downstream parsers never reinterpret them.
func Serialize(feed *Feed) ([]byte, error) {
	doc := rssOut{
		Version:   Version,
		AtomNS:    atomNS,
		MediaNS:   mediaNS,
		ContentNS: contentNS,
		Channel: channelOut{
			Title:       feed.Title,
			Link:        feed.Link,
			Description: feed.Description,
			SelfLink: atomLinkOut{
				Href: feed.SelfLink,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: make([]itemOut, 0, len(feed.Items)),
		},
	}

	for _, item := range feed.Items {
		out := itemOut{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        guidOut{IsPermaLink: true, Value: item.GUID},
			Description: item.Description,
			PubDate:     item.PubDate,
			Content:     contentOut{ContentNS: contentNS, Body: item.Body},
		}
		if item.ImageURL != "" {
			out.Media = &mediaOut{URL: item.ImageURL, Medium: "image"}
			out.Thumbnail = &mediaOut{URL: item.ImageURL}
		}
		doc.Channel.Items = append(doc.Channel.Items, out)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding feed document: %w", err)
	}

	return append([]byte(xml.Header), data...), nil
}

// Parse decodes a feed document. A document without items yields an empty,
// non-nil item slice so callers can always treat Items as a sequence.
func Parse(document []byte) (*Feed, error) {
	var doc rssIn
	if err := xml.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("decoding feed document: %w", err)
	}

	feed := &Feed{
		Title:       doc.Channel.Title,
		Link:        doc.Channel.Link,
		Description: doc.Channel.Description,
		SelfLink:    doc.Channel.SelfLink.Href,
		Items:       make([]Item, 0, len(doc.Channel.Items)),
	}

	for _, item := range doc.Channel.Items {
		parsed := Item{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			Description: item.Description,
			PubDate:     item.PubDate,
			Body:        item.Content,
		}
		if item.Media != nil {
			parsed.ImageURL = item.Media.URL
		}
		feed.Items = append(feed.Items, parsed)
	}

	return feed, nil
}
