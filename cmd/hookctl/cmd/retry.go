package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// retryCmd forces an immediate delivery attempt for a queued job
var retryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Force an immediate retry of a queued delivery job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID := args[0]
		resp, err := makeHTTPRequest("POST", "/webhooks/retry/"+jobID, nil)
		if err != nil {
			return fmt.Errorf("retry failed: %w", err)
		}
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		if outputJSON {
			printJSON(b)
			return nil
		}
		fmt.Printf("✓ Retry triggered for job %s\n", jobID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
