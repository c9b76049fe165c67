package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/api"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config values",
}

var configCreateCmd = &cobra.Command{
	Use:   "create --deployment ID KEY VALUE",
	Short: "Set a config value",
	Long: `The owning model defaults to "global" unless one of --deployment,
--workload or --team is given; a Deployment's effective config is the
union of global, team, workload and deployment-scoped values, narrower
scope winning.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owningModel, err := configOwningModel(cmd)
		if err != nil {
			return err
		}
		valueType, _ := cmd.Flags().GetString("type")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		cfg, _, err := c.UpsertConfig(context.Background(), &api.ConfigMessage{
			Key: args[0], Value: args[1], OwningModel: owningModel, ValueType: valueType,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Config set: %s=%s (%s)\n  ID: %s\n", cfg.Key, cfg.Value, cfg.OwningModel, cfg.ID)
		return nil
	},
}

func configOwningModel(cmd *cobra.Command) (string, error) {
	deployment, _ := cmd.Flags().GetString("deployment")
	workload, _ := cmd.Flags().GetString("workload")
	team, _ := cmd.Flags().GetString("team")

	set := 0
	for _, v := range []string{deployment, workload, team} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return "", fmt.Errorf("only one of --deployment, --workload, --team may be given")
	}
	switch {
	case deployment != "":
		return "deployment:" + deployment, nil
	case workload != "":
		return "workload:" + workload, nil
	case team != "":
		return "team:" + team, nil
	default:
		return "global", nil
	}
}

var configGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		cfg, err := c.GetConfig(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %s\nKey:         %s\nValue:       %s\nOwningModel: %s\nValueType:   %s\n",
			cfg.ID, cfg.Key, cfg.Value, cfg.OwningModel, cfg.ValueType)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		owningModel, _ := cmd.Flags().GetString("owning-model")

		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var configs []*api.ConfigMessage
		if owningModel != "" {
			configs, err = c.ListConfigsByOwningModel(context.Background(), owningModel)
		} else {
			configs, err = c.ListConfigs(context.Background())
		}
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			fmt.Println("No config values found")
			return nil
		}
		fmt.Printf("%-36s %-20s %-30s %s\n", "ID", "KEY", "VALUE", "OWNING_MODEL")
		for _, cfg := range configs {
			fmt.Printf("%-36s %-20s %-30s %s\n", cfg.ID, cfg.Key, cfg.Value, cfg.OwningModel)
		}
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.DeleteConfig(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Config deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd, configGetCmd, configListCmd, configDeleteCmd)
	for _, cmd := range []*cobra.Command{configCreateCmd, configGetCmd, configListCmd, configDeleteCmd} {
		addClientFlags(cmd)
	}
	configCreateCmd.Flags().String("deployment", "", "Scope this value to a deployment")
	configCreateCmd.Flags().String("workload", "", "Scope this value to a workload")
	configCreateCmd.Flags().String("team", "", "Scope this value to a team")
	configCreateCmd.Flags().String("type", "string", "Value type: string, keyvalue or keyvaluelist")
	configListCmd.Flags().String("owning-model", "", `List only values owned by this model ("kind:id" or "global")`)
}
