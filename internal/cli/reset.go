package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <conversation-id>",
	Short: "Forget a conversation",
	Long: `Delete every stored message of a conversation. Resetting a conversation
that does not exist succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.Reset(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("reset conversation: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.successStyle().Render("Conversation "+args[0]+" reset."))
		return nil
	},
}
