package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"feedsync/cms"
	"feedsync/config"
	"feedsync/engine"
	"feedsync/rss"
	"feedsync/sanitize"
	"feedsync/server"
	"feedsync/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// serveCmd starts the webhook server
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook server",
		Description: `Starts the HTTP server that receives CMS content events and
keeps the stored feed document in sync.

Exposes POST /webhook for event delivery, GET /metrics for Prometheus
and GET /healthz.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "The port to listen on",
				EnvVars: []string{"FEEDSYNC_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			blobs, err := newBlobStore(cfg)
			if err != nil {
				return err
			}

			fallback := rss.Default(cfg.Feed.Title, cfg.Feed.Link, cfg.Feed.Description, cfg.Feed.SelfLink)
			feedStore := store.NewFeedStore(blobs, fallback)
			eng := engine.New(feedStore, sanitize.New(), cfg.Feed.ItemLinkTemplate)
			client := cms.NewClient(cfg.CMS.APIURL, cfg.CMS.Token)

			app := server.Server(&server.ServerConfig{
				Engine:       eng,
				Fetcher:      client,
				CollectionID: cfg.CMS.CollectionID,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)

			go func() {
				<-c
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
					log.Errorf("Error shutting down server: %v", err)
				}
			}()

			port := cfg.Server.Port
			if ctx.IsSet("port") {
				port = ctx.Int("port")
			}

			log.WithFields(log.Fields{
				"port":       port,
				"collection": cfg.CMS.CollectionID,
				"store":      cfg.Store.Backend,
			}).Info("Starting feedsync server")

			if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}

			return nil
		},
	}
}

func newBlobStore(cfg *config.Config) (store.BlobStore, error) {
	switch cfg.Store.Backend {
	case "s3":
		return store.NewS3Store(cfg.Store.S3)
	case "file":
		return store.NewFileStore(cfg.Store.File.Path), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
