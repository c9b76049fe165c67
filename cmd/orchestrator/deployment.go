package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
	"github.com/meridian/orchestrator/pkg/types"
)

var deploymentCmd = &cobra.Command{
	Use:   "deployment",
	Short: "Manage deployments",
}

var deploymentCreateCmd = &cobra.Command{
	Use:   "create NAME --workload ID --target ID [--template ID] --hosts N|all",
	Short: "Create a deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workloadID, _ := cmd.Flags().GetString("workload")
		targetID, _ := cmd.Flags().GetString("target")
		templateID, _ := cmd.Flags().GetString("template")
		hosts, _ := cmd.Flags().GetString("hosts")

		hostCount, err := parseHostCount(hosts)
		if err != nil {
			return err
		}

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		deployment, _, err := c.UpsertDeployment(context.Background(), &api.DeploymentMessage{
			Name: args[0], WorkloadID: workloadID, TargetID: targetID,
			TemplateID: templateID, HostCount: hostCount,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Deployment created: %s\n  ID: %s\n", deployment.Name, deployment.ID)
		return nil
	},
}

// parseHostCount accepts a literal count or the sentinel "all", which
// maps to types.HostCountAll ("assign every Host matching the Target").
func parseHostCount(s string) (int, error) {
	if s == "all" {
		return types.HostCountAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("--hosts must be a number or \"all\": %w", err)
	}
	return n, nil
}

var deploymentGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		d, err := c.GetDeployment(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:        %s\nName:      %s\nWorkload:  %s\nTarget:    %s\nTemplate:  %s\nHostCount: %d\n",
			d.ID, d.Name, d.WorkloadID, d.TargetID, d.TemplateID, d.HostCount)
		return nil
	},
}

var deploymentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		workloadID, _ := cmd.Flags().GetString("workload")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var deployments []*api.DeploymentMessage
		if workloadID != "" {
			deployments, err = c.ListDeploymentsByWorkload(context.Background(), workloadID)
		} else {
			deployments, err = c.ListDeployments(context.Background())
		}
		if err != nil {
			return err
		}
		if len(deployments) == 0 {
			fmt.Println("No deployments found")
			return nil
		}
		fmt.Printf("%-36s %-20s %-36s %s\n", "ID", "NAME", "WORKLOAD", "HOSTS")
		for _, d := range deployments {
			fmt.Printf("%-36s %-20s %-36s %d\n", d.ID, d.Name, d.WorkloadID, d.HostCount)
		}
		return nil
	},
}

var deploymentDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteDeployment(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deployment deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	deploymentCmd.AddCommand(deploymentCreateCmd, deploymentGetCmd, deploymentListCmd, deploymentDeleteCmd)
	for _, cmd := range []*cobra.Command{deploymentCreateCmd, deploymentGetCmd, deploymentListCmd, deploymentDeleteCmd} {
		addClientFlags(cmd)
	}
	deploymentCreateCmd.Flags().String("workload", "", "Owning workload ID (required)")
	deploymentCreateCmd.Flags().String("target", "", "Target ID this deployment is placed against (required)")
	deploymentCreateCmd.Flags().String("template", "", "Override the workload's default template")
	deploymentCreateCmd.Flags().String("hosts", "1", `Number of hosts to assign, or "all"`)
	deploymentCreateCmd.MarkFlagRequired("workload")
	deploymentCreateCmd.MarkFlagRequired("target")
	deploymentListCmd.Flags().String("workload", "", "List only deployments owned by this workload")
}
