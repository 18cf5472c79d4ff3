package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"newsportal/internal/content/frontmatter"
	"newsportal/internal/content/slug"
)

// inspection is what a content file resolves to, without touching the store.
type inspection struct {
	File      string   `json:"file"`
	Slug      string   `json:"slug"`
	Aliases   []string `json:"aliases,omitempty"`
	Fallback  bool     `json:"fallback_slug,omitempty"`
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Featured  bool     `json:"featured"`
	Date      string   `json:"date,omitempty"`
	DateValid bool     `json:"date_valid"`
	Degraded  bool     `json:"degraded_frontmatter"`
}

func inspectFile(path string, excerptLength int) (inspection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return inspection{}, err
	}
	name := filepath.Base(path)
	doc := frontmatter.Parse(string(raw))
	res := slug.Resolve(name, doc.Get("slug"), frontmatter.List(doc.Get("aliases")))

	out := inspection{
		File:     name,
		Slug:     res.Slug,
		Aliases:  res.Aliases,
		Fallback: res.Fallback,
		Title:    doc.Title(),
		Excerpt:  doc.Excerpt(excerptLength),
		Category: doc.Get("category"),
		Tags:     frontmatter.List(doc.Get("tags")),
		Featured: frontmatter.Bool(doc.Get("featured")),
		Date:     doc.Get("date"),
		Degraded: doc.Degraded,
	}
	if out.Date != "" {
		_, out.DateValid = frontmatter.Time(out.Date)
	}
	return out, nil
}

func newInspectCmd(c *cli) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show the slug and metadata a content file resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]inspection, 0, len(args))
			for _, path := range args {
				in, err := inspectFile(path, c.cfg.ExcerptLength)
				if err != nil {
					return err
				}
				results = append(results, in)
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for i, in := range results {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "file:     %s\n", in.File)
				fmt.Fprintf(w, "slug:     %s\n", in.Slug)
				if len(in.Aliases) > 0 {
					fmt.Fprintf(w, "aliases:  %s\n", strings.Join(in.Aliases, ", "))
				}
				fmt.Fprintf(w, "title:    %s\n", in.Title)
				fmt.Fprintf(w, "excerpt:  %s\n", in.Excerpt)
				if in.Category != "" {
					fmt.Fprintf(w, "category: %s\n", in.Category)
				}
				if in.Date != "" && !in.DateValid {
					fmt.Fprintf(w, "warning:  unparseable date %q\n", in.Date)
				}
				if in.Fallback {
					fmt.Fprintln(w, "warning:  no usable slug, generated from file name hash")
				}
				if in.Degraded {
					fmt.Fprintln(w, "warning:  unterminated frontmatter block, read as body")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
