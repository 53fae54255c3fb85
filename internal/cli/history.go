package cli

import (
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Show a conversation's messages",
	Long: `Show the messages of a conversation in the order they were written.

Examples:
  paydesk history 7c9e6679-7425-40de-944b-e07fc1f90ae7
  paydesk history 7c9e6679-7425-40de-944b-e07fc1f90ae7 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the history as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	history, err := apiClient.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	if len(history) == 0 {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("No messages in this conversation."))
		return nil
	}
	for _, entry := range history {
		style := defaultTheme.agentStyle()
		if entry.Role == models.RoleUser {
			style = defaultTheme.customerStyle()
		}
		fmt.Fprintf(out, "%s %s\n", style.Render(entry.Role.Label()+":"), entry.Content)
	}
	return nil
}
