// Command projectcreation registers every bot of an environment as a
// Botfront project. It is invoked asynchronously on each deploy.
package main

import (
	"context"
	"time"

	"botfront-infra/internal/botfront"
	"botfront-infra/topology"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/caarlos0/env/v11"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Settings are read from the function environment.
type Settings struct {
	Version     string        `env:"VERSION"`
	BotfrontURL string        `env:"BOTFRONT_URL"`
	MaxElapsed  time.Duration `env:"RETRY_MAX_ELAPSED" envDefault:"45s"`
}

// ProjectUpserter registers one project with Botfront.
type ProjectUpserter interface {
	UpsertProject(ctx context.Context, p topology.Project) error
}

// Handler upserts the projects of a request.
type Handler struct {
	Secrets   secretsmanageriface.SecretsManagerAPI
	Settings  Settings
	NewClient func(baseURL, token string) ProjectUpserter
	BackOff   func() backoff.BackOff
}

// Handle reads the API token, then upserts each project, retrying while
// Botfront is still starting. Failures are collected per project.
func (h *Handler) Handle(ctx context.Context, req topology.ProjectRequest) error {
	log := zap.L().With(zap.String("version", h.Settings.Version))

	baseURL := req.BotfrontBaseURL
	if baseURL == "" {
		baseURL = h.Settings.BotfrontURL
	}
	if baseURL == "" {
		return errors.New("no botfront url in request or environment")
	}

	out, err := h.Secrets.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(req.TokenSecretArn),
	})
	if err != nil {
		return errors.Wrap(err, "read botfront api token")
	}
	client := h.NewClient(baseURL, aws.StringValue(out.SecretString))

	log.Info("registering projects",
		zap.String("botfront", baseURL),
		zap.Int("projects", len(req.Projects)),
		zap.Int64("timestamp", req.Timestamp))

	var errs error
	for _, p := range req.Projects {
		p := p
		plog := log.With(zap.String("projectId", p.ProjectID), zap.String("name", p.Name))

		op := func() error {
			err := client.UpsertProject(ctx, p)
			var status *botfront.StatusError
			if errors.As(err, &status) && !status.Temporary() {
				return backoff.Permanent(err)
			}
			return err
		}
		notify := func(err error, wait time.Duration) {
			plog.Warn("upsert failed, retrying", zap.Error(err), zap.Duration("wait", wait))
		}

		if err := backoff.RetryNotify(op, backoff.WithContext(h.BackOff(), ctx), notify); err != nil {
			plog.Error("upsert failed", zap.Error(err))
			errs = multierr.Append(errs, errors.Wrapf(err, "project %s", p.ProjectID))
			continue
		}
		plog.Info("project registered")
	}
	return errs
}

func (h *Handler) exponential() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = h.Settings.MaxElapsed
	return b
}

func newLambdaHandler() (*Handler, error) {
	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return nil, errors.Wrap(err, "parse settings")
	}
	h := &Handler{
		Secrets:  secretsmanager.New(session.Must(session.NewSession())),
		Settings: settings,
		NewClient: func(baseURL, token string) ProjectUpserter {
			return botfront.NewClient(baseURL, token)
		},
	}
	h.BackOff = h.exponential
	return h, nil
}

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	h, err := newLambdaHandler()
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	lambda.Start(h.Handle)
}
