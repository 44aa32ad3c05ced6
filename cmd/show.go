package cmd

import (
	"errors"
	"fmt"
	"os"

	"feedsync/config"
	"feedsync/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// showCmd prints the stored feed document
func showCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the stored feed document to stdout",
		Description: `Fetches the feed document from the configured blob store and
prints it as-is to stdout.

Prints all log messages to stderr so the output can be piped to a file
or an XML tool.`,
		Action: func(ctx *cli.Context) error {
			// Keep stdout clean for the document itself
			log.SetOutput(os.Stderr)

			cfg, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}

			blobs, err := newBlobStore(cfg)
			if err != nil {
				return err
			}

			data, err := blobs.Get(ctx.Context)
			if err != nil {
				if errors.Is(err, store.ErrNotExist) {
					return cli.Exit("No feed document stored yet", 1)
				}
				return err
			}

			fmt.Println(string(data))
			return nil
		},
	}
}
