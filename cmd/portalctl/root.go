package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"newsportal/internal/channel"
	"newsportal/internal/config"
	"newsportal/internal/observability/logging"
)

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	channelsFile string
	verbose      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "News portal content tool",
		Long: `portalctl ingests channel content into the article store and shows how
content files resolve to slugs and metadata.

Settings come from the same environment variables as the api and worker
(DATABASE_DRIVER, DATABASE_URL, CHANNELS_FILE, CONTENT_ROOT, ...).

Example usage:
  portalctl channels                    # List configured channels
  portalctl ingest                      # Ingest every channel under CONTENT_ROOT
  portalctl ingest nasional --json      # Ingest one channel, print the report as JSON
  portalctl inspect content/nasional/a.md
  portalctl slug "Harga Cabai Naik!"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&c.channelsFile, "channels", "", "channel file (default $CHANNELS_FILE)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newChannelsCmd(c),
		newIngestCmd(c),
		newInspectCmd(c),
		newSlugCmd(),
	)
	return root
}

func (c *cli) init(stderr io.Writer) error {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = logging.New(stderr, level, "text")
	c.cfg = config.Load(c.logger, nil)
	if c.channelsFile != "" {
		c.cfg.ChannelsFile = c.channelsFile
	}
	return nil
}

func (c *cli) channels() (*channel.Registry, error) {
	return channel.Load(c.cfg.ChannelsFile)
}
