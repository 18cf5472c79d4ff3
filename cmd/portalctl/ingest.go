package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"newsportal/internal/infra/store"
	ingestUC "newsportal/internal/usecase/ingest"
)

func newIngestCmd(c *cli) *cobra.Command {
	var (
		root       string
		jsonOutput bool
		migrate    bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [channel...]",
		Short: "Ingest channel content into the article store",
		Long: `Ingest reads <root>/<channel>/ for each named channel, or every channel
directory under root when none is named, and upserts the articles.

Exit status is non-zero when the store failed, even if some items were written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = c.cfg.ContentRoot
			}
			if root == "" {
				return errors.New("content root not set: use --root or CONTENT_ROOT")
			}
			if !c.cfg.UsesSQL() {
				c.logger.Warn("ingesting into the in-memory store, nothing is persisted")
			}

			reg, err := c.channels()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, c.cfg.DatabaseDriver, c.cfg.DatabaseURL, migrate, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ingestCfg := ingestUC.DefaultConfig()
			ingestCfg.Parallelism = c.cfg.IngestParallelism
			ingestCfg.ExcerptLength = c.cfg.ExcerptLength
			svc := ingestUC.NewService(reg, st.Repo, ingestCfg, ingestUC.WithLogger(c.logger))

			reports, runErr := runIngest(ctx, svc, root, args)
			if err := printReports(cmd.OutOrStdout(), reports, jsonOutput); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "content root (default $CONTENT_ROOT)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output reports as JSON")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create the schema before ingesting")
	return cmd
}

type ingester interface {
	IngestDir(ctx context.Context, channelID, dir string) (*ingestUC.Report, error)
	IngestAll(ctx context.Context, root string) ([]*ingestUC.Report, error)
}

// runIngest ingests the named channels in order, or everything under root.
// It stops at the first channel whose run returns an error.
func runIngest(ctx context.Context, svc ingester, root string, channelIDs []string) ([]*ingestUC.Report, error) {
	if len(channelIDs) == 0 {
		return svc.IngestAll(ctx, root)
	}
	var reports []*ingestUC.Report
	for _, id := range channelIDs {
		report, err := svc.IngestDir(ctx, id, filepath.Join(root, id))
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, fmt.Errorf("channel %s: %w", id, err)
		}
	}
	return reports, nil
}

func printReports(w io.Writer, reports []*ingestUC.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if reports == nil {
			reports = []*ingestUC.Report{}
		}
		return enc.Encode(reports)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tCREATED\tUPDATED\tDEGRADED\tCONFLICTS\tUNREADABLE\tFAILED\tDURATION")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ChannelID, r.Created, r.Updated, r.Degraded, r.Conflicts, r.Unreadable, r.Failed, r.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range reports {
		for _, item := range r.Items {
			if item.Reason == "" {
				continue
			}
			fmt.Fprintf(w, "%s/%s: %s: %s\n", r.ChannelID, item.Name, item.Outcome, item.Reason)
		}
	}
	return nil
}
