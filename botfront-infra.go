// Command botfront-infra is the CDK app. It synthesizes one stack per
// environment listed in the environments file.
package main

import (
	"os"

	"botfront-infra/config"
	"botfront-infra/stack"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"go.uber.org/zap"
)

func main() {
	defer jsii.Close()

	logger := zap.Must(zap.NewProduction())
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(); err != nil {
		logger.Error("synth failed", zap.Error(err))
		jsii.Close()
		os.Exit(1)
	}
}

func run() error {
	target, err := config.LoadDeployTarget()
	if err != nil {
		return err
	}
	envs, err := config.Load(target.EnvironmentsFile)
	if err != nil {
		return err
	}
	envs, err = config.Select(envs, target.Environments)
	if err != nil {
		return err
	}

	app := awscdk.NewApp(nil)
	for _, e := range envs {
		e = target.Resolve(e)
		_, err := stack.NewAppStack(app, stackID(e), &stack.AppStackProps{
			StackProps: awscdk.StackProps{
				Env: &awscdk.Environment{
					Account: jsii.String(e.Env.Account),
					Region:  jsii.String(e.Env.Region),
				},
				Description: jsii.String("Botfront platform for environment " + e.EnvName),
			},
			Environment: e,
		})
		if err != nil {
			return err
		}
		zap.L().Info("stack added", zap.String("env", e.EnvName), zap.String("stack", stackID(e)))
	}

	app.Synth(nil)
	return nil
}

func stackID(e config.Environment) string {
	return "Botfront-" + e.EnvName
}
