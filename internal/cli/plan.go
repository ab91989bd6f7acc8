package cli

import (
	"fmt"
	"os"

	"botfront-infra/topology"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPlanCmd() *cobra.Command {
	var envName string
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resolved topology of an environment",
		Long: `Derive the complete resource topology of one environment and print it as JSON.

The output lists every named resource, service descriptor, listener rule,
security-group edge, project payload and webchat site a synth would render.

Examples:
  botfrontctl plan --env demo
  botfrontctl plan --env demo -o demo-topology.json`,
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
			data, err := top.JSON()
			if err != nil {
				return errors.Wrap(err, "failed to encode topology")
			}

			if output != "" {
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return errors.Wrapf(err, "failed to write %s", output)
				}
				zap.L().Info("topology written", zap.String("env", env.EnvName), zap.String("file", output))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "Environment to plan")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the topology to a file instead of stdout")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}
