package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Manage workloads",
}

var workloadCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a workload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		teamID, _ := cmd.Flags().GetString("team")
		templateID, _ := cmd.Flags().GetString("template")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		workload, _, err := c.UpsertWorkload(context.Background(), &api.WorkloadMessage{
			Name: args[0], TeamID: teamID, TemplateID: templateID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Workload created: %s\n  ID: %s\n", workload.Name, workload.ID)
		return nil
	},
}

var workloadGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a workload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		w, err := c.GetWorkload(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:         %s\nName:       %s\nTeam:       %s\nTemplate:   %s\n", w.ID, w.Name, w.TeamID, w.TemplateID)
		return nil
	},
}

var workloadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		teamID, _ := cmd.Flags().GetString("team")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var workloads []*api.WorkloadMessage
		if teamID != "" {
			workloads, err = c.ListWorkloadsByTeam(context.Background(), teamID)
		} else {
			workloads, err = c.ListWorkloads(context.Background())
		}
		if err != nil {
			return err
		}
		if len(workloads) == 0 {
			fmt.Println("No workloads found")
			return nil
		}
		fmt.Printf("%-36s %-20s %s\n", "ID", "NAME", "TEAM")
		for _, w := range workloads {
			fmt.Printf("%-36s %-20s %s\n", w.ID, w.Name, w.TeamID)
		}
		return nil
	},
}

var workloadDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a workload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteWorkload(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Workload deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	workloadCmd.AddCommand(workloadCreateCmd, workloadGetCmd, workloadListCmd, workloadDeleteCmd)
	for _, cmd := range []*cobra.Command{workloadCreateCmd, workloadGetCmd, workloadListCmd, workloadDeleteCmd} {
		addClientFlags(cmd)
	}
	workloadCreateCmd.Flags().String("team", "", "Owning team ID (required)")
	workloadCreateCmd.Flags().String("template", "", "Default template ID")
	workloadCreateCmd.MarkFlagRequired("team")
	workloadListCmd.Flags().String("team", "", "List only workloads owned by this team")
}
