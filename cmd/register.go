package cmd

import (
	"fmt"
	"time"

	"feedsync/cms"
	"feedsync/config"
	"feedsync/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/cqroot/prompt"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// registerCmd registers the CMS webhooks. One-time setup; unlike the sync
// path this may retry transient failures.
func registerCmd() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register the CMS webhooks for the target collection",
		Description: `Registers a webhook subscription with the CMS for each of the
three trigger types (item-created, item-changed, item-deleted), all
pointing at this server's /webhook endpoint.

Run once after deploying the server. Requires cms.site_id and a token
with webhook permissions in the configuration.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "Public base URL the CMS should deliver events to",
				EnvVars: []string{"FEEDSYNC_ENDPOINT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			if cfg.CMS.SiteID == "" {
				return fmt.Errorf("cms.site_id is required to register webhooks")
			}

			endpoint := ctx.String("endpoint")
			if endpoint == "" {
				endpoint = cfg.Server.PublicURL
			}

			endpoint, err = prompt.New().Ask("Webhook endpoint base URL:").Input(endpoint)
			if err != nil {
				return err
			}
			if endpoint == "" {
				return fmt.Errorf("no endpoint given")
			}

			client := cms.NewClient(cfg.CMS.APIURL, cfg.CMS.Token)
			url := endpoint + "/webhook"

			triggers := []string{
				models.TriggerItemCreated,
				models.TriggerItemChanged,
				models.TriggerItemDeleted,
			}

			for _, trigger := range triggers {
				operation := func() error {
					return client.CreateWebhook(ctx.Context, cfg.CMS.SiteID, trigger, url)
				}

				bo := backoff.NewExponentialBackOff()
				bo.MaxElapsedTime = 30 * time.Second

				if err := backoff.Retry(operation, bo); err != nil {
					return fmt.Errorf("registering %s webhook: %w", trigger, err)
				}

				log.WithFields(log.Fields{
					"trigger": trigger,
					"url":     url,
				}).Info("Registered webhook")
			}

			fmt.Println("Registered all webhooks...")
			return nil
		},
	}
}
