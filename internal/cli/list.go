package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"postexplorer/internal/domain"
	"postexplorer/internal/explorer"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		query  string
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch posts once and print those matching the search query",
		Long: "Fetch posts once and print those matching the search query.\n" +
			"Without --query the saved search query is used. The saved query is never changed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("query") {
				store, err := a.queryStore()
				if err != nil {
					return err
				}
				query = store.Get(cmd.Context())
			}

			all, err := a.source().FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			matched := explorer.Filter(all, query, a.matchOptions())
			if limit > 0 && len(matched) > limit {
				matched = matched[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(matched)
			}
			printPosts(out, matched, query)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search query (defaults to the saved query)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print posts as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n posts")
	return cmd
}

var (
	listIDStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(6)
	listTitleStyle = lipgloss.NewStyle().Bold(true)
	listDimStyle   = lipgloss.NewStyle().Faint(true)
)

func printPosts(w io.Writer, posts []domain.Post, query string) {
	for _, p := range posts {
		fmt.Fprintf(w, "%s%s\n", listIDStyle.Render(fmt.Sprintf("#%d", p.ID)), listTitleStyle.Render(p.Title))
	}
	if query != "" {
		fmt.Fprintln(w, listDimStyle.Render(fmt.Sprintf("%d posts match %q", len(posts), query)))
	}
}
