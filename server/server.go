// Package server is the HTTP shell around the sync engine: it parses the
// inbound event envelope and dispatches it to the right operation.
package server

import (
	"context"
	"time"

	"feedsync/engine"
	"feedsync/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsync_events_received_total",
		Help: "Number of webhook events received by trigger type",
	}, []string{"trigger"})

	eventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedsync_events_skipped_total",
		Help: "Number of webhook events for collections other than the target",
	})

	syncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedsync_failures_total",
		Help: "Number of webhook events that failed to synchronize",
	})
)

// ContentFetcher retrieves one CMS record by id
type ContentFetcher interface {
	Item(ctx context.Context, collectionID, itemID string) (*models.CMSItem, error)
}

type ServerConfig struct {

	// The engine that applies feed mutations
	Engine *engine.Engine

	// The CMS client used on create/change events
	Fetcher ContentFetcher

	// Events for any other collection are acknowledged but ignored
	CollectionID string
}

// Returns a fiber.App instance serving the webhook endpoint and metrics
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		// Diff
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/webhook", func(c *fiber.Ctx) error {
		var event models.WebhookEvent
		if err := c.BodyParser(&event); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Warn("Rejecting malformed event envelope")
			return c.Status(fiber.StatusInternalServerError).SendString("Invalid event envelope")
		}

		if !models.KnownTrigger(event.TriggerType) {
			log.WithFields(log.Fields{
				"trigger": event.TriggerType,
			}).Warn("Rejecting unknown trigger type")
			return c.Status(fiber.StatusInternalServerError).SendString("Unknown trigger type")
		}

		eventsReceived.WithLabelValues(event.TriggerType).Inc()

		logger := log.WithFields(log.Fields{
			"sync_id": uuid.New().String(),
			"trigger": event.TriggerType,
			"item":    event.Payload.ItemID,
		})

		// Events for other collections are acknowledged without touching
		// the feed document
		if event.Payload.CollectionID != config.CollectionID {
			eventsSkipped.Inc()
			logger.WithFields(log.Fields{
				"collection": event.Payload.CollectionID,
			}).Info("Ignoring event for unrelated collection")
			return c.JSON(fiber.Map{"status": "ignored"})
		}

		switch event.TriggerType {
		case models.TriggerItemDeleted:
			slug := event.Payload.Slug
			if slug == "" {
				slug = event.Payload.ItemID
			}
			if err := config.Engine.Delete(c.Context(), slug); err != nil {
				syncFailures.Inc()
				logger.WithFields(log.Fields{
					"error": err,
				}).Error("Failed to remove item from feed")
				return c.Status(fiber.StatusInternalServerError).SendString("Error synchronizing feed")
			}

		default:
			record, err := config.Fetcher.Item(c.Context(), event.Payload.CollectionID, event.Payload.ItemID)
			if err != nil {
				syncFailures.Inc()
				logger.WithFields(log.Fields{
					"error": err,
				}).Error("Failed to fetch item from CMS")
				return c.Status(fiber.StatusInternalServerError).SendString("Error synchronizing feed")
			}
			if err := config.Engine.Upsert(c.Context(), record); err != nil {
				syncFailures.Inc()
				logger.WithFields(log.Fields{
					"error": err,
				}).Error("Failed to upsert item into feed")
				return c.Status(fiber.StatusInternalServerError).SendString("Error synchronizing feed")
			}
		}

		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}
