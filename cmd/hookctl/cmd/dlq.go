package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// dlqCmd groups dead-letter inspection subcommands
var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect dead-lettered deliveries",
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered delivery jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := makeHTTPRequest("GET", "/admin/dlq", nil)
		if err != nil {
			return fmt.Errorf("dlq list failed: %w", err)
		}
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		printJSON(b)
		return nil
	},
}

func init() {
	dlqCmd.AddCommand(dlqListCmd)
	rootCmd.AddCommand(dlqCmd)
}
