package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FeedConfig holds the channel identity of the published feed
type FeedConfig struct {
	Title       string `toml:"title"`
	Link        string `toml:"link"`
	Description string `toml:"description"`
	SelfLink    string `toml:"self_link"`

	// Printf-style template with a single %s verb for the item slug,
	// e.g. "https://example.com/blog/%s". The rendered URL doubles as
	// the item guid, so upsert and delete derive the same identity.
	ItemLinkTemplate string `toml:"item_link_template"`
}

// CMSConfig holds the read API credentials and the target collection
type CMSConfig struct {
	APIURL       string `toml:"api_url"`
	Token        string `toml:"token"`
	CollectionID string `toml:"collection_id"`
	SiteID       string `toml:"site_id"`
}

type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Object    string `toml:"object"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type FileConfig struct {
	Path string `toml:"path"`
}

// StoreConfig selects the blob backend holding the feed document
type StoreConfig struct {
	Backend string     `toml:"backend"`
	S3      S3Config   `toml:"s3"`
	File    FileConfig `toml:"file"`
}

type ServerConfig struct {
	Port      int    `toml:"port"`
	PublicURL string `toml:"public_url"`
}

type Config struct {
	Feed   FeedConfig   `toml:"feed"`
	CMS    CMSConfig    `toml:"cms"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// Load reads and validates the configuration once at startup. Secrets can
// be kept out of the file and supplied via FEEDSYNC_CMS_TOKEN and
// FEEDSYNC_S3_SECRET_KEY instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if token := os.Getenv("FEEDSYNC_CMS_TOKEN"); token != "" {
		config.CMS.Token = token
	}
	if secret := os.Getenv("FEEDSYNC_S3_SECRET_KEY"); secret != "" {
		config.Store.S3.SecretKey = secret
	}

	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Store.Backend == "" {
		config.Store.Backend = "file"
	}
	if config.Store.Backend == "file" && config.Store.File.Path == "" {
		config.Store.File.Path = "feed.xml"
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Feed.Title == "" || c.Feed.Link == "" {
		return fmt.Errorf("feed.title and feed.link are required")
	}
	if strings.Count(c.Feed.ItemLinkTemplate, "%s") != 1 {
		return fmt.Errorf("feed.item_link_template must contain exactly one %%s verb")
	}
	if c.CMS.APIURL == "" || c.CMS.CollectionID == "" {
		return fmt.Errorf("cms.api_url and cms.collection_id are required")
	}
	switch c.Store.Backend {
	case "file":
		// Defaulted above
	case "s3":
		if c.Store.S3.Endpoint == "" || c.Store.S3.Bucket == "" || c.Store.S3.Object == "" {
			return fmt.Errorf("store.s3 requires endpoint, bucket and object")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
