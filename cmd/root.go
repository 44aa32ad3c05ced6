package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "feedsync",
		Usage: "Keep an RSS feed in blob storage in sync with CMS content events",
		Description: `Feedsync keeps a single RSS 2.0 feed document, stored as one
		object in a blob store, synchronized with content events from a CMS.

		The CMS delivers a webhook for every created, changed or deleted
		item. Feedsync reads the stored feed document, applies the change
		in memory and writes the whole document back.

		Flags can generally be set via environment variables, e.g.:

		--config => FEEDSYNC_CONFIG=feedsync.toml
		--port => FEEDSYNC_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				Value:   "feedsync.toml",
				EnvVars: []string{"FEEDSYNC_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			registerCmd(),
			showCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
