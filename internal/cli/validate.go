package cli

import (
	"fmt"
	"io"
	"sort"

	"botfront-infra/topology"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newValidateCmd() *cobra.Command {
	var envNames []string
	var details bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate environment definitions",
		Long: `Validate every environment in the environments file, or only the named ones.

All problems of an environment are reported together.

Examples:
  botfrontctl validate
  botfrontctl validate --env demo --env customer
  botfrontctl validate -f other.yaml --details`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			envs, err := loadEnvironments(envNames)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, env := range envs {
				top, err := topology.Build(env)
				if err != nil {
					failed++
					printProblems(out, env.EnvName, err, details)
					continue
				}
				zap.L().Debug("environment valid", zap.String("env", env.EnvName), zap.Int("resources", len(top.Resources)))
				fmt.Fprintf(out, "%s: valid (%d services, %d listener rules, %d projects)\n",
					env.EnvName, len(top.Services), len(top.Network.Rules), len(top.Projects))
			}

			if failed > 0 {
				return errors.Errorf("%d of %d environments failed validation", failed, len(envs))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&envNames, "env", "e", nil, "Environment to validate (repeatable, default all)")
	cmd.Flags().BoolVar(&details, "details", false, "Print diagnostic details with each problem")

	return cmd
}

func printProblems(out io.Writer, env string, err error, details bool) {
	problems := topology.Errors(err)
	if len(problems) == 0 {
		fmt.Fprintf(out, "%s: %v\n", env, err)
		return
	}

	fmt.Fprintf(out, "%s: %d problem(s)\n", env, len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  - %s\n", p.Error())
		if !details {
			continue
		}
		keys := lo.Keys(p.Details)
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "      %s: %v\n", k, p.Details[k])
		}
	}
}
