// Package cli implements the botfrontctl commands.
package cli

import (
	"botfront-infra/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultEnvironmentsFile = "environments.yaml"

var rootCmd = newRootCmd()

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "botfrontctl",
		Short: "Inspect Botfront platform environments",
		Long: `botfrontctl checks and explains the environments the CDK app deploys.

It runs the same topology derivation as a synth, without touching AWS,
so naming, port and routing problems surface before a deploy.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(verbose)
		},
	}

	cmd.PersistentFlags().StringP("file", "f", defaultEnvironmentsFile, "Path to the environments file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	_ = viper.BindPFlag("file", cmd.PersistentFlags().Lookup("file"))
	viper.SetEnvPrefix("BOTFRONTCTL")
	viper.AutomaticEnv()

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newProjectsCmd())

	return cmd
}

func initLogger(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// loadEnvironments reads the environments file and returns the named
// environments with account and region resolved from the process environment.
func loadEnvironments(names []string) ([]config.Environment, error) {
	path := viper.GetString("file")
	zap.L().Debug("loading environments", zap.String("file", path), zap.Strings("names", names))

	envs, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	selected, err := config.Select(envs, names)
	if err != nil {
		return nil, err
	}
	target, err := config.LoadDeployTarget()
	if err != nil {
		return nil, err
	}
	for i := range selected {
		selected[i] = target.Resolve(selected[i])
	}
	return selected, nil
}

func loadEnvironment(name string) (config.Environment, error) {
	envs, err := loadEnvironments([]string{name})
	if err != nil {
		return config.Environment{}, err
	}
	return envs[0], nil
}
