package models

// Trigger types carried by the inbound event envelope
const (
	TriggerItemCreated = "item-created"
	TriggerItemChanged = "item-changed"
	TriggerItemDeleted = "item-deleted"
)

// KnownTrigger reports whether the trigger type is one we dispatch on
func KnownTrigger(trigger string) bool {
	switch trigger {
	case TriggerItemCreated, TriggerItemChanged, TriggerItemDeleted:
		return true
	}
	return false
}

// WebhookEvent is the envelope delivered by the CMS for every content change
type WebhookEvent struct {
	TriggerType string       `json:"triggerType"`
	Payload     EventPayload `json:"payload"`
}

// EventPayload identifies the changed item. Delete events carry the slug
// since the record itself may no longer be fetchable.
type EventPayload struct {
	CollectionID string `json:"collectionId"`
	ItemID       string `json:"id"`
	Slug         string `json:"slug,omitempty"`
	IsArchived   bool   `json:"isArchived"`
	IsDraft      bool   `json:"isDraft"`
}

// CMSItem is one content record as returned by the CMS read API.
// Image, body and date may be absent; fallbacks are applied when the
// feed item is built.
type CMSItem struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Summary     string `json:"summary"`
	PublishedOn string `json:"publishedOn"`
	ImageURL    string `json:"imageUrl"`
	Body        string `json:"body"`
	Archived    bool   `json:"isArchived"`
	Draft       bool   `json:"isDraft"`
}
