package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// loginCmd exercises the CLI auth handshake to the extent it is in
// scope: it confirms the api process is reachable, over the connection
// the client flags describe, by issuing one ListTeams call. The TOKEN
// argument is accepted but not sent or checked. Persisting a session or
// issuing a client certificate from the token is the external
// collaborator's job.
var loginCmd = &cobra.Command{
	Use:   "login TOKEN",
	Short: "Verify credentials against the orchestrator api",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialClient(cmd)
		if err != nil {
			return fmt.Errorf("connect to api: %w", err)
		}
		defer c.Close()

		if _, err := c.ListTeams(context.Background()); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Println("✓ Connected to orchestrator api")
		return nil
	},
}

func init() {
	addClientFlags(loginCmd)
}
