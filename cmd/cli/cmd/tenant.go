package cmd

import (
	"taskplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tenant",
	Long: `Register a new tenant and print its API key.

The key is shown exactly once; the coordinator only stores its hash. Save it
somewhere safe and use it as TASKPLANE_TOKEN.

Example:
  taskctl tenant create --name "analytics-team" --rate-limit 50`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		rateLimit, _ := flags.GetInt("rate-limit")
		burst, _ := flags.GetInt("burst")

		url := viper.GetString("url")

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		// Tenant creation is unauthenticated, no token needed.
		client := NewTaskClient(url, "")

		result, err := client.CreateTenant(api.CreateTenantRequest{
			Name:           name,
			RateLimit:      rateLimit,
			RateLimitBurst: burst,
		})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Create failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Create failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Tenant created!\nTenant ID: %s\nAPI Key:   %s\n\nThe key is not stored, save it now.\n", result.ID, result.APIKey)
	},
}

func init() {
	flags := tenantCreateCmd.Flags()
	flags.StringP("name", "n", "", "Name of the tenant (required)")
	flags.Int("rate-limit", 0, "Requests per second allowed for the tenant (0 = unlimited)")
	flags.Int("burst", 0, "Burst size for the tenant rate limit")

	tenantCmd.AddCommand(tenantCreateCmd)
	rootCmd.AddCommand(tenantCmd)
}
