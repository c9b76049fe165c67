package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage targets",
}

var targetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, _ := cmd.Flags().GetStringSlice("label")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		target, _, err := c.UpsertTarget(context.Background(), &api.TargetMessage{Labels: labels})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Target created: %s\n  Labels: %s\n", target.ID, strings.Join(target.Labels, ","))
		return nil
	},
}

var targetGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		target, err := c.GetTarget(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:     %s\nLabels: %s\n", target.ID, strings.Join(target.Labels, ","))
		return nil
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		targets, err := c.ListTargets(context.Background())
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Println("No targets found")
			return nil
		}
		fmt.Printf("%-36s %s\n", "ID", "LABELS")
		for _, t := range targets {
			fmt.Printf("%-36s %s\n", t.ID, strings.Join(t.Labels, ","))
		}
		return nil
	},
}

var targetDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteTarget(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Target deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	targetCmd.AddCommand(targetCreateCmd, targetGetCmd, targetListCmd, targetDeleteCmd)
	for _, cmd := range []*cobra.Command{targetCreateCmd, targetGetCmd, targetListCmd, targetDeleteCmd} {
		addClientFlags(cmd)
	}
	targetCreateCmd.Flags().StringSlice("label", []string{}, "Label to match hosts against (key:value), repeatable")
}
