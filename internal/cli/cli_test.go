package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const environmentsYAML = `
environments:
  - envName: demo
    domain: example.com
    subDomain: demo.example.com
    hostedZoneId: Z0123456789ABC
    env:
      account: "123456789012"
      region: eu-north-1
    softwareVersions:
      frontend: 0.0.7
      botfront: 3.0.1
      rasa: 3.0.2
      actions: 2.8.3
      projectCreation: 0.0.1
    defaultRepositories:
      botfrontRepository: botfront-private
      rasaBotRepository: rasa-private
      actionsRepository: actions-private
    sourceBucketName: source
    botfrontAdminEmail: admin@example.com
    rasaBots:
      - customerName: acme
        projectName: acme
        projectId: p1
        rasaPort: 5005
        actionsPort: 5055
      - customerName: beta
        projectName: beta
        projectId: p2
        rasaPort: 5006
        actionsPort: 5056
        hasProd: true
        rasaPortProd: 10006
  - envName: broken
    domain: example.com
    subDomain: broken.example.com
    softwareVersions:
      frontend: 0.0.7
      botfront: 3.0.1
      rasa: 3.0.2
      actions: 2.8.3
      projectCreation: 0.0.1
    defaultRepositories:
      botfrontRepository: botfront-private
      rasaBotRepository: rasa-private
      actionsRepository: actions-private
    sourceBucketName: source
    botfrontAdminEmail: admin@example.com
    rasaBots:
      - customerName: acme
        projectName: acme
        projectId: p1
        rasaPort: 5005
        actionsPort: 5055
      - customerName: Acme
        projectName: other
        projectId: p1
        rasaPort: 5005
        actionsPort: 5056
`

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func writeEnvironments(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "environments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(environmentsYAML), 0o644))
	return path
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "botfrontctl", cmd.Use)

	flag := cmd.PersistentFlags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, "environments.yaml", flag.DefValue)

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Use] = true
	}
	for _, expected := range []string{"validate", "plan", "projects"} {
		assert.True(t, subcommands[expected], "missing subcommand %s", expected)
	}
}

func TestValidateCmd_Valid(t *testing.T) {
	path := writeEnvironments(t)

	out, err := executeCommand(newRootCmd(), "validate", "--file", path, "--env", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo: valid (7 services, 5 listener rules, 2 projects)")
}

func TestValidateCmd_ReportsEveryProblem(t *testing.T) {
	path := writeEnvironments(t)

	out, err := executeCommand(newRootCmd(), "validate", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 environments failed validation")

	assert.Contains(t, out, "demo: valid")
	assert.Contains(t, out, "broken: 3 problem(s)")
	assert.Contains(t, out, "PORT_COLLISION")
	assert.Contains(t, out, "PROJECT_ID_COLLISION")
	assert.Contains(t, out, "NAME_COLLISION")
	assert.NotContains(t, out, "bots:")
}

func TestValidateCmd_Details(t *testing.T) {
	path := writeEnvironments(t)

	out, err := executeCommand(newRootCmd(), "validate", "--file", path, "--env", "broken", "--details")
	require.Error(t, err)
	assert.Contains(t, out, "port: 5005")
	assert.Contains(t, out, "field: customerName")
}

func TestValidateCmd_UnknownEnvironment(t *testing.T) {
	path := writeEnvironments(t)

	_, err := executeCommand(newRootCmd(), "validate", "--file", path, "--env", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `environment "staging" is not defined`)
}

func TestValidateCmd_FileFromEnvironment(t *testing.T) {
	t.Setenv("BOTFRONTCTL_FILE", writeEnvironments(t))

	out, err := executeCommand(newRootCmd(), "validate", "--env", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo: valid")
}

func TestValidateCmd_MissingFile(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "validate", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read environments file")
}

func TestPlanCmd(t *testing.T) {
	path := writeEnvironments(t)

	out, err := executeCommand(newRootCmd(), "plan", "--file", path, "--env", "demo")
	require.NoError(t, err)

	var plan struct {
		EnvName   string                     `json:"envName"`
		Namespace string                     `json:"namespace"`
		Resources map[string]json.RawMessage `json:"resources"`
		Network   struct {
			Rules []struct {
				Priority int `json:"priority"`
			} `json:"rules"`
		} `json:"network"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "demo", plan.EnvName)
	assert.Equal(t, "demoservice.internal", plan.Namespace)
	assert.Contains(t, plan.Resources, "demo-service-rasa-acme")
	assert.Len(t, plan.Network.Rules, 5)
}

func TestPlanCmd_Output(t *testing.T) {
	path := writeEnvironments(t)
	target := filepath.Join(t.TempDir(), "demo.json")

	out, err := executeCommand(newRootCmd(), "plan", "--file", path, "--env", "demo", "-o", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestPlanCmd_RequiresEnv(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "plan", "--file", writeEnvironments(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "env" not set`)
}

func TestPlanCmd_Invalid(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "plan", "--file", writeEnvironments(t), "--env", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment broken")
	assert.Contains(t, out, "broken: 3 problem(s)")
}

func TestProjectsCmd(t *testing.T) {
	path := writeEnvironments(t)

	out, err := executeCommand(newRootCmd(), "projects", "--file", path, "--env", "demo")
	require.NoError(t, err)

	var request struct {
		TokenSecretArn  string `json:"tokenSecretArn"`
		BotfrontBaseURL string `json:"botfrontBaseUrl"`
		Projects        []struct {
			ProjectID   string `json:"projectId"`
			HasProd     bool   `json:"hasProd"`
			ProdBaseURL string `json:"prodBaseUrl"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &request))
	assert.Equal(t, "demo/graphql/apikey", request.TokenSecretArn)
	assert.Equal(t, "http://botfront.demoservice.internal:3030", request.BotfrontBaseURL)
	require.Len(t, request.Projects, 2)
	assert.Equal(t, "p1", request.Projects[0].ProjectID)
	assert.False(t, request.Projects[0].HasProd)
	assert.True(t, request.Projects[1].HasProd)
	assert.Equal(t, "https://demo.example.com/rasa-prod/beta", request.Projects[1].ProdBaseURL)
}
