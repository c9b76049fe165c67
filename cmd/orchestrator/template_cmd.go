package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage templates",
}

var templateCreateCmd = &cobra.Command{
	Use:   "create REPOSITORY",
	Short: "Create a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gitRef, _ := cmd.Flags().GetString("ref")
		path, _ := cmd.Flags().GetString("path")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		tpl, _, err := c.UpsertTemplate(context.Background(), &api.TemplateMessage{
			Repository: args[0], GitRef: gitRef, Path: path,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Template created: %s\n  ID: %s\n", tpl.Repository, tpl.ID)
		return nil
	},
}

var templateGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		tpl, err := c.GetTemplate(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:         %s\nRepository: %s\nGitRef:     %s\nPath:       %s\n", tpl.ID, tpl.Repository, tpl.GitRef, tpl.Path)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		templates, err := c.ListTemplates(context.Background())
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("No templates found")
			return nil
		}
		fmt.Printf("%-36s %-40s %s\n", "ID", "REPOSITORY", "REF")
		for _, t := range templates {
			fmt.Printf("%-36s %-40s %s\n", t.ID, t.Repository, t.GitRef)
		}
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteTemplate(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Template deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateCreateCmd, templateGetCmd, templateListCmd, templateDeleteCmd)
	for _, cmd := range []*cobra.Command{templateCreateCmd, templateGetCmd, templateListCmd, templateDeleteCmd} {
		addClientFlags(cmd)
	}
	templateCreateCmd.Flags().String("ref", "main", "Git ref to track")
	templateCreateCmd.Flags().String("path", "", "Subdirectory within the repository holding the manifest tree")
}
