package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "Taskctl is a command line tool for interacting with the taskplane coordinator",
	Long: `taskctl is the command-line interface for the TaskPlane task coordination service.

TaskPlane is a multi-tenant coordinator for asynchronous tasks: clients submit
tasks over HTTP, the coordinator persists them and publishes dispatch commands
to queues that execution agents consume. Lifecycle actions (kill, reconcile)
travel through a dedicated management queue.

Common workflows:

  Submit a command task:
    taskctl submit --name "nightly-report" --commands "python report.py"

  Submit a container task:
    taskctl submit --name "batch-job" --image "python:3.11"

  Request a kill:
    taskctl kill <task-id>

  Check task status:
    taskctl status <task-id>

  Reconcile a batch of tasks against the store:
    taskctl reconcile <task-id> <task-id> ...

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    TASKPLANE_URL      API endpoint (default: http://localhost:7171)
    TASKPLANE_TOKEN    Tenant API key for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".taskctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".taskctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "TASKPLANE_VARNAME"
	viper.SetEnvPrefix("TASKPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.taskctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7171", "TaskPlane Coordinator URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API key for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
