// Package config holds the static environment definitions the stacks are built from.
package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultRegion is used when neither the environment file nor the process
// environment names a region.
const DefaultRegion = "eu-north-1"

// DefaultLanguage is the webchat language when a bot does not set one.
const DefaultLanguage = "fi"

// Bot is one tenant's Rasa bot definition.
type Bot struct {
	CustomerName     string            `yaml:"customerName" json:"customerName" validate:"required,alphanum"`
	ProjectName      string            `yaml:"projectName" json:"projectName" validate:"required,alphanum"`
	ProjectID        string            `yaml:"projectId" json:"projectId" validate:"required"`
	RasaPort         int               `yaml:"rasaPort" json:"rasaPort" validate:"required,min=1,max=65535"`
	ActionsPort      int               `yaml:"actionsPort" json:"actionsPort" validate:"required,min=1,max=65535"`
	RasaPortProd     *int              `yaml:"rasaPortProd,omitempty" json:"rasaPortProd,omitempty" validate:"omitempty,min=1,max=65535"`
	ActionsPortProd  *int              `yaml:"actionsPortProd,omitempty" json:"actionsPortProd,omitempty" validate:"omitempty,min=1,max=65535"`
	HasProd          bool              `yaml:"hasProd,omitempty" json:"hasProd,omitempty"`
	RasaLoadModels   bool              `yaml:"rasaLoadModels,omitempty" json:"rasaLoadModels,omitempty"`
	Disabled         bool              `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	AdditionalConfig *AdditionalConfig `yaml:"additionalConfig,omitempty" json:"additionalConfig,omitempty"`
}

// AdditionalConfig is free-form per-tenant webchat configuration.
type AdditionalConfig struct {
	Language string            `yaml:"language,omitempty" json:"language,omitempty"`
	Intents  map[string]string `yaml:"intents,omitempty" json:"intents,omitempty"`
}

// Ports returns every port the bot defines, in field order.
func (b Bot) Ports() []int {
	ports := []int{b.RasaPort, b.ActionsPort}
	if b.RasaPortProd != nil {
		ports = append(ports, *b.RasaPortProd)
	}
	if b.ActionsPortProd != nil {
		ports = append(ports, *b.ActionsPortProd)
	}
	return ports
}

// Language returns the configured webchat language or DefaultLanguage.
func (b Bot) Language() string {
	if b.AdditionalConfig != nil && b.AdditionalConfig.Language != "" {
		return b.AdditionalConfig.Language
	}
	return DefaultLanguage
}

// SoftwareVersions maps each software component to its image tag or artifact version.
type SoftwareVersions struct {
	Frontend        string `yaml:"frontend" json:"frontend" validate:"required"`
	Botfront        string `yaml:"botfront" json:"botfront" validate:"required"`
	Rasa            string `yaml:"rasa" json:"rasa" validate:"required"`
	Actions         string `yaml:"actions" json:"actions" validate:"required"`
	ProjectCreation string `yaml:"projectCreation" json:"projectCreation" validate:"required"`
}

// DefaultRepositories are the shared ECR repositories images are pulled from.
type DefaultRepositories struct {
	BotfrontRepository string `yaml:"botfrontRepository" json:"botfrontRepository" validate:"required"`
	RasaBotRepository  string `yaml:"rasaBotRepository" json:"rasaBotRepository" validate:"required"`
	ActionsRepository  string `yaml:"actionsRepository" json:"actionsRepository" validate:"required"`
}

// Account is the AWS account/region pair an environment deploys into.
type Account struct {
	Account string `yaml:"account,omitempty" json:"account,omitempty"`
	Region  string `yaml:"region,omitempty" json:"region,omitempty"`
}

// Environment is one deployable environment and the bots it owns.
type Environment struct {
	EnvName             string              `yaml:"envName" json:"envName" validate:"required,alphanum"`
	Domain              string              `yaml:"domain" json:"domain" validate:"required,fqdn"`
	SubDomain           string              `yaml:"subDomain" json:"subDomain" validate:"required,fqdn"`
	HostedZoneID        string              `yaml:"hostedZoneId,omitempty" json:"hostedZoneId,omitempty"`
	Env                 Account             `yaml:"env,omitempty" json:"env,omitempty"`
	SoftwareVersions    SoftwareVersions    `yaml:"softwareVersions" json:"softwareVersions"`
	DefaultRepositories DefaultRepositories `yaml:"defaultRepositories" json:"defaultRepositories"`
	SourceBucketName    string              `yaml:"sourceBucketName" json:"sourceBucketName" validate:"required"`
	BotfrontAdminEmail  string              `yaml:"botfrontAdminEmail" json:"botfrontAdminEmail" validate:"required,email"`
	RasaBots            []Bot               `yaml:"rasaBots" json:"rasaBots" validate:"dive"`
}

// EnabledBots returns the bots that take part in the topology, keeping their order.
func (e Environment) EnabledBots() []Bot {
	bots := make([]Bot, 0, len(e.RasaBots))
	for _, bot := range e.RasaBots {
		if !bot.Disabled {
			bots = append(bots, bot)
		}
	}
	return bots
}

// File is the on-disk layout of the environments file.
type File struct {
	Environments []Environment `yaml:"environments"`
}

// Parse decodes an environments document. JSON input is accepted as well.
func Parse(data []byte) ([]Environment, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to decode environments")
	}
	return f.Environments, nil
}

// Load reads and decodes the environments file at path.
func Load(path string) ([]Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read environments file %q", path)
	}
	envs, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %q", path)
	}
	return envs, nil
}

// Select returns the environments whose names are listed, in file order.
// An empty list selects everything.
func Select(envs []Environment, names []string) ([]Environment, error) {
	if len(names) == 0 {
		return envs, nil
	}
	selected := make([]Environment, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		found := false
		for _, e := range envs {
			if e.EnvName == name {
				selected = append(selected, e)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("environment %q is not defined", name)
		}
	}
	return selected, nil
}

// DeployTarget carries the process-level settings of a synth run.
type DeployTarget struct {
	DeployAccount    string   `env:"CDK_DEPLOY_ACCOUNT"`
	DeployRegion     string   `env:"CDK_DEPLOY_REGION"`
	DefaultAccount   string   `env:"CDK_DEFAULT_ACCOUNT"`
	DefaultRegion    string   `env:"CDK_DEFAULT_REGION"`
	EnvironmentsFile string   `env:"BOTFRONT_ENVIRONMENTS_FILE" envDefault:"environments.yaml"`
	Environments     []string `env:"BOTFRONT_ENVIRONMENTS" envSeparator:","`
}

// LoadDeployTarget reads the deploy target from the process environment.
func LoadDeployTarget() (DeployTarget, error) {
	var t DeployTarget
	if err := env.Parse(&t); err != nil {
		return t, errors.Wrap(err, "failed to parse deploy target")
	}
	return t, nil
}

// Account returns the deploy account, preferring CDK_DEPLOY_ACCOUNT.
func (t DeployTarget) Account() string {
	if t.DeployAccount != "" {
		return t.DeployAccount
	}
	return t.DefaultAccount
}

// Region returns the deploy region, preferring CDK_DEPLOY_REGION.
func (t DeployTarget) Region() string {
	switch {
	case t.DeployRegion != "":
		return t.DeployRegion
	case t.DefaultRegion != "":
		return t.DefaultRegion
	default:
		return DefaultRegion
	}
}

// Resolve fills the environment's account and region from the target where
// the environment file leaves them empty.
func (t DeployTarget) Resolve(e Environment) Environment {
	if e.Env.Account == "" {
		e.Env.Account = t.Account()
	}
	if e.Env.Region == "" {
		e.Env.Region = t.Region()
	}
	return e
}
