package cli

import (
	"encoding/json"
	"fmt"

	"botfront-infra/topology"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Print the Botfront project registrations of an environment",
		Long: `Print the payload the project-creation function receives on deploy,
one entry per enabled bot. The API token secret is shown by name; a deploy
passes its ARN and a fresh timestamp.

Examples:
  botfrontctl projects --env demo`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(envName)
			if err != nil {
				return err
			}
			top, err := topology.Build(env)
			if err != nil {
				printProblems(cmd.ErrOrStderr(), env.EnvName, err, false)
				return errors.Wrapf(err, "environment %s", env.EnvName)
			}

			request := topology.NewProjectRequest(
				topology.GraphQLSecretName(env.EnvName),
				topology.BotfrontRestURL(env.EnvName),
				top.Projects,
				0,
			)
			data, err := json.MarshalIndent(request, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to encode projects")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "Environment to inspect")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}
