package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the HookBridge gateway",
	Long:  `Check the gateway's liveness endpoint and report the per-provider webhook status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := makeHTTPRequest("GET", "/healthz", nil)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if outputJSON {
			b, err := readBody(resp)
			if err != nil {
				return err
			}
			printJSON(b)
			return nil
		}
		defer resp.Body.Close()
		if resp.StatusCode == 200 {
			fmt.Println("✓ Gateway is healthy")
		} else {
			fmt.Printf("✗ Gateway is unhealthy (HTTP %d)\n", resp.StatusCode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
