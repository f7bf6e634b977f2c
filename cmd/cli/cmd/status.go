package cmd

import (
	"fmt"
	"strconv"
	"time"

	"taskplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [task_id]",
	Short: "Get status of a task",
	Long:  `Retrieve detailed status information for a task, including its current state (PENDING, RUNNING, SUCCEEDED, FAILED, KILLED, EXPIRED), the agent running it, and timestamps.`,
	Args:  cobra.ExactArgs(1),
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

		result, err := client.QueryTasks([]int64{taskID})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Query failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Query failed: %v\n", err)
			}
			return
		}

		if len(result.Tasks) == 0 {
			cmd.Printf("Task %d not found\n", taskID)
			return
		}

		printStatus(cmd, result.Tasks[0])
	},
}

func printStatus(cmd *cobra.Command, task api.TaskResponse) {
	icon := statusIcon(task.Status)
	cmd.Printf("%s %sTask Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s        %d\n", colorDim, colorReset, task.TaskID)
	cmd.Printf("%sName:%s      %s\n", colorDim, colorReset, task.TaskName)
	cmd.Printf("%sMode:%s      %s\n", colorDim, colorReset, task.RunMode)
	cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(task.Status))

	if task.AgentID != "" {
		cmd.Printf("%sAgent:%s     %s\n", colorDim, colorReset, task.AgentID)
	} else {
		cmd.Printf("%sAgent:%s     -\n", colorDim, colorReset)
	}

	if task.Message != "" {
		cmd.Printf("%sMessage:%s   %s\n", colorDim, colorReset, task.Message)
	}

	cmd.Printf("%sCreated:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(&task.CreatedAt))

	if task.FinishedAt != nil {
		duration := task.FinishedAt.Sub(task.CreatedAt)
		cmd.Printf("%sFinished:%s  %s %s(%s)%s\n", colorDim, colorReset,
			formatTimeWithRelative(task.FinishedAt),
			colorCyan, formatDuration(duration), colorReset)
	} else {
		cmd.Printf("%sFinished:%s  -\n", colorDim, colorReset)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "SUCCEEDED":
		return colorGreen + "✓" + colorReset
	case "FAILED", "KILLED", "EXPIRED":
		return colorRed + "✗" + colorReset
	case "RUNNING":
		return colorYellow + "⏳" + colorReset
	case "PENDING":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "SUCCEEDED":
		return icon + " " + colorGreen + status + colorReset
	case "FAILED", "KILLED", "EXPIRED":
		return icon + " " + colorRed + status + colorReset
	case "RUNNING":
		return icon + " " + colorYellow + status + colorReset
	case "PENDING":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
