package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [task_id ...]",
	Short: "Reconcile a batch of tasks against the store",
	Long: `Reconcile the given tasks: running tasks with a known agent get a RECONCILE
command published to the management queue, running tasks with no agent are
expired, finished tasks are skipped. If any requested id is unknown the whole
call fails and nothing is published.

Example:
  taskctl reconcile 7212816987455422464 7212816987455422465`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskIDs := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				cmd.Printf("Invalid task id: %s\n", arg)
				return
			}
			taskIDs = append(taskIDs, id)
		}

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the TASKPLANE_TOKEN environment variable")
			return
		}

		client := NewTaskClient(url, token)

		summary, err := client.ReconcileTasks(taskIDs)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Reconcile failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Reconcile failed: %v\n", err)
			}
			return
		}

		cmd.Printf("Reconciled %d of %d tasks\n", summary.Reconciled, summary.Requested)
		for _, detail := range summary.Details {
			marker := "✗"
			if detail.Reconciled {
				marker = "✓"
			}
			cmd.Printf("  %s %d: %s\n", marker, detail.TaskID, detail.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
