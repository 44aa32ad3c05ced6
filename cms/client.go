// Package cms is a thin client for the content management read API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feedsync/models"

	"github.com/labstack/gommon/log"
)

// DefaultTimeout bounds every request to the CMS. Failures are surfaced to
// the caller, never retried here.
const DefaultTimeout = 15 * time.Second

type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		base:  strings.TrimRight(apiURL, "/"),
		token: token,
		http:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Item fetches one content record by id from the target collection
func (c *Client) Item(ctx context.Context, collectionID, itemID string) (*models.CMSItem, error) {
	url := fmt.Sprintf("%s/collections/%s/items/%s", c.base, collectionID, itemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build item request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Display the status so we can see what went wrong
		log.Errorf("item fetch for %s returned status %d", itemID, resp.StatusCode)
		return nil, fmt.Errorf("failed to fetch item %s: unexpected status %d", itemID, resp.StatusCode)
	}

	var item models.CMSItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", itemID, err)
	}

	return &item, nil
}

// CreateWebhook registers a webhook subscription for one trigger type.
// Used by the one-time register command, not by the sync path.
func (c *Client) CreateWebhook(ctx context.Context, siteID, triggerType, url string) error {
	payload, err := json.Marshal(map[string]string{
		"triggerType": triggerType,
		"url":         url,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook registration: %w", err)
	}

	endpoint := fmt.Sprintf("%s/sites/%s/webhooks", c.base, siteID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook registration request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register %s webhook: %w", triggerType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Errorf("webhook registration for %s returned status %d", triggerType, resp.StatusCode)
		return fmt.Errorf("failed to register %s webhook: unexpected status %d", triggerType, resp.StatusCode)
	}

	return nil
}
