package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var killCmd = &cobra.Command{
	Use:   "kill [task_id]",
	Short: "Request a kill for a running task",
	Long: `Ask the coordinator to kill a task. The coordinator publishes a KILL command
to the management queue for the agent running the task; the actual termination
happens asynchronously. Killing a task that already finished is not an error,
the response reports the terminal status instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			cmd.Printf("Invalid task id: %s\n", args[0])
			return
		}

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the TASKPLANE_TOKEN environment variable")
			return
		}

		client := NewTaskClient(url, token)

		result, err := client.KillTask(taskID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Kill failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Kill failed: %v\n", err)
			}
			return
		}

		if result.Accepted {
			cmd.Printf("✓ Kill command accepted\nStatus: %s\n", result.Status)
		} else {
			cmd.Printf("Kill not dispatched, task already finished\nStatus: %s\nMessage: %s\n", result.Status, result.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(killCmd)
}
