package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <conversation-id> <query>",
	Short: "Find the messages of a conversation most similar to a query",
	Long: `Search a conversation for messages similar to a query. The server needs
an embedding provider for this.

Examples:
  paydesk search 7c9e6679-7425-40de-944b-e07fc1f90ae7 "refund for headphones"
  paydesk search 7c9e6679-7425-40de-944b-e07fc1f90ae7 shipping --limit 3`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 5, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args[1:], " ")
	results, err := apiClient.Search(cmd.Context(), args[0], query, searchLimit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("No matching messages."))
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. [%.3f] %s %s\n", i+1, r.Distance, r.Role.Label()+":", r.Content)
	}
	return nil
}
