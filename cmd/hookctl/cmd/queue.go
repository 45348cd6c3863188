package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	queueOwner    string
	queuePriority string
)

// queueCmd groups retry queue inspection subcommands
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the delivery retry queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued delivery jobs",
	Long:  `List retry queue items, optionally filtered by owner (client id) or priority.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if queueOwner != "" {
			q.Set("owner", queueOwner)
		}
		if queuePriority != "" {
			q.Set("priority", queuePriority)
		}
		path := "/admin/queue"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		resp, err := makeHTTPRequest("GET", path, nil)
		if err != nil {
			return fmt.Errorf("queue list failed: %w", err)
		}
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		printJSON(b)
		return nil
	},
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate queue counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := makeHTTPRequest("GET", "/admin/queue/stats", nil)
		if err != nil {
			return fmt.Errorf("queue stats failed: %w", err)
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
	queueListCmd.Flags().StringVar(&queueOwner, "owner", "", "filter by owning client id")
	queueListCmd.Flags().StringVar(&queuePriority, "priority", "", "filter by priority (critical|high|normal|low)")
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueStatsCmd)
	rootCmd.AddCommand(queueCmd)
}
