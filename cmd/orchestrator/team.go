package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams",
}

var teamCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		team, _, err := c.UpsertTeam(context.Background(), &api.TeamMessage{Name: args[0]})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Team created: %s\n  ID: %s\n", team.Name, team.ID)
		return nil
	},
}

var teamGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		team, err := c.GetTeam(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:   %s\nName: %s\n", team.ID, team.Name)
		return nil
	},
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		teams, err := c.ListTeams(context.Background())
		if err != nil {
			return err
		}
		if len(teams) == 0 {
			fmt.Println("No teams found")
			return nil
		}
		fmt.Printf("%-36s %s\n", "ID", "NAME")
		for _, t := range teams {
			fmt.Printf("%-36s %s\n", t.ID, t.Name)
		}
		return nil
	},
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a team",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteTeam(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Team deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	teamCmd.AddCommand(teamCreateCmd, teamGetCmd, teamListCmd, teamDeleteCmd)
	for _, cmd := range []*cobra.Command{teamCreateCmd, teamGetCmd, teamListCmd, teamDeleteCmd} {
		addClientFlags(cmd)
	}
}
