package cmd

import (
	"taskplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new task",
	Long: `Submit a new task to the coordinator. The task is persisted and a dispatch
command is published to the task queue for the execution agents.

Exactly one of --commands or --image must be set: --commands submits a COMMAND
mode task, --image a CONTAINER mode task.

Example:
  taskctl submit --name "nightly-report" --commands "python report.py"
  taskctl submit --name "batch-job" --image "python:3.11" --callback "http://callbacks.local/done"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		commands, _ := flags.GetString("commands")
		image, _ := flags.GetString("image")
		callback, _ := flags.GetString("callback")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the TASKPLANE_TOKEN environment variable")
			return
		}

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		if (commands == "") == (image == "") {
			cmd.Println("Error: exactly one of --commands or --image is required")
			return
		}

		client := NewTaskClient(url, token)

		result, err := client.SubmitTask(api.SubmitTaskRequest{
			TaskName:    name,
			Commands:    commands,
			DockerImage: image,
			CallbackURL: callback,
		})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Submit failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Task submitted!\nTask ID: %d\n", result.TaskID)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("name", "n", "", "Name of the task (required)")
	flags.StringP("commands", "c", "", "Shell command line to execute (COMMAND mode)")
	flags.StringP("image", "i", "", "Container image to run (CONTAINER mode)")
	flags.String("callback", "", "URL notified when the task finishes (optional)")

	rootCmd.AddCommand(submitCmd)
}
