package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Manage hosts",
}

var hostCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a host",
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, _ := cmd.Flags().GetStringSlice("label")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		host, _, err := c.UpsertHost(context.Background(), &api.HostMessage{Labels: labels})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Host created: %s\n  Labels: %s\n", host.ID, strings.Join(host.Labels, ","))
		return nil
	},
}

var hostGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		host, err := c.GetHost(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:     %s\nLabels: %s\n", host.ID, strings.Join(host.Labels, ","))
		return nil
	},
}

var hostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		hosts, err := c.ListHosts(context.Background())
		if err != nil {
			return err
		}
		if len(hosts) == 0 {
			fmt.Println("No hosts found")
			return nil
		}
		fmt.Printf("%-36s %s\n", "ID", "LABELS")
		for _, h := range hosts {
			fmt.Printf("%-36s %s\n", h.ID, strings.Join(h.Labels, ","))
		}
		return nil
	},
}

var hostDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteHost(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Host deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	hostCmd.AddCommand(hostCreateCmd, hostGetCmd, hostListCmd, hostDeleteCmd)
	for _, cmd := range []*cobra.Command{hostCreateCmd, hostGetCmd, hostListCmd, hostDeleteCmd} {
		addClientFlags(cmd)
	}
	hostCreateCmd.Flags().StringSlice("label", []string{}, "Label this host carries (key:value), repeatable")
}
