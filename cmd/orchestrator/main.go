package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Multi-cluster workload orchestrator",
	Long: `orchestrator assigns Deployments to Hosts across clusters and
renders the result into a GitOps repository, as three cooperating
processes sharing one database and event stream.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"orchestrator version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(reconcilerCmd)
	rootCmd.AddCommand(gitopsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(workloadCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(deploymentCmd)
	rootCmd.AddCommand(assignmentCmd)
	rootCmd.AddCommand(configCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
