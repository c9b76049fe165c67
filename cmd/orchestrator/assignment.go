package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var assignmentCmd = &cobra.Command{
	Use:   "assignment",
	Short: "Manage assignments",
}

var assignmentCreateCmd = &cobra.Command{
	Use:   "create --deployment ID --host ID",
	Short: "Assign a deployment to a host directly",
	Long: `Assignments are normally produced by the reconciler from a
Deployment's desired host count; this command creates one by hand, for
testing or for Deployments reconciled out-of-band.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deploymentID, _ := cmd.Flags().GetString("deployment")
		hostID, _ := cmd.Flags().GetString("host")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		opID, err := c.CreateAssignment(context.Background(), deploymentID, hostID)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Assignment created\n  Operation: %s\n", opID)
		return nil
	},
}

var assignmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		deploymentID, _ := cmd.Flags().GetString("deployment")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var assignments []*api.AssignmentMessage
		if deploymentID != "" {
			assignments, err = c.ListAssignmentsByDeployment(context.Background(), deploymentID)
		} else {
			assignments, err = c.ListAssignments(context.Background())
		}
		if err != nil {
			return err
		}
		if len(assignments) == 0 {
			fmt.Println("No assignments found")
			return nil
		}
		fmt.Printf("%-36s %-36s %s\n", "ID", "DEPLOYMENT", "HOST")
		for _, a := range assignments {
			fmt.Printf("%-36s %-36s %s\n", a.ID, a.DeploymentID, a.HostID)
		}
		return nil
	},
}

var assignmentDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteAssignment(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Assignment deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	assignmentCmd.AddCommand(assignmentCreateCmd, assignmentListCmd, assignmentDeleteCmd)
	for _, cmd := range []*cobra.Command{assignmentCreateCmd, assignmentListCmd, assignmentDeleteCmd} {
		addClientFlags(cmd)
	}
	assignmentCreateCmd.Flags().String("deployment", "", "Deployment ID (required)")
	assignmentCreateCmd.Flags().String("host", "", "Host ID (required)")
	assignmentCreateCmd.MarkFlagRequired("deployment")
	assignmentCreateCmd.MarkFlagRequired("host")
	assignmentListCmd.Flags().String("deployment", "", "List only assignments for this deployment")
}
