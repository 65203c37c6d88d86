package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/artpar/composeresolve/internal/core/deployment"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const cliComposeFile = `
version: "2.1"
services:
  web:
    image: "shop/web:${TAG}"
    command: nginx -g 'daemon off;'
    ports:
      - "8080:80"
    volumes:
      - ./html:/usr/share/nginx/html:ro
    depends_on:
      - db
  db:
    image: postgres:16
    environment:
      POSTGRES_DB: shop
`

// =============================================================================
// Helpers
// =============================================================================

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(cliComposeFile), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if eErr, ok := err.(*exitError); ok {
		return eErr.code
	}
	return ExitConfigError
}

// =============================================================================
// Resolve Command Tests
// =============================================================================

func TestResolveCommand_JSON(t *testing.T) {
	dir := writeProject(t)

	out, err := execute(t, "resolve", "--basedir", dir, "--no-env", "-p", "TAG=1.4")
	require.NoError(t, err)

	var images []compose.ImageConfiguration
	require.NoError(t, json.Unmarshal([]byte(out), &images))
	require.Len(t, images, 2)

	web := images[0]
	assert.Equal(t, "web", web.Alias)
	assert.Equal(t, "shop/web:1.4", web.Name)
	require.NotNil(t, web.Run.Cmd)
	assert.Equal(t, "nginx -g 'daemon off;'", web.Run.Cmd.Shell)
	assert.Equal(t, []string{"8080:80"}, web.Run.Ports)
	assert.Equal(t, []string{filepath.Join(dir, "html") + ":/usr/share/nginx/html:ro"}, web.Run.Volumes.Bind)

	assert.Equal(t, "db", images[1].Alias)
	assert.Equal(t, map[string]string{"POSTGRES_DB": "shop"}, images[1].Run.Env)
}

func TestResolveCommand_YAML(t *testing.T) {
	dir := writeProject(t)

	out, err := execute(t, "resolve", "--basedir", dir, "--no-env", "-p", "TAG=2", "-o", "yaml")
	require.NoError(t, err)

	var images []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &images))
	require.Len(t, images, 2)
	assert.Equal(t, "web", images[0]["alias"])
	assert.Equal(t, "shop/web:2", images[0]["name"])
	assert.NotContains(t, out, `"alias"`)
}

func TestResolveCommand_ConfigFile(t *testing.T) {
	dir := writeProject(t)
	require.NoError(t, os.Rename(filepath.Join(dir, "docker-compose.yml"), filepath.Join(dir, "stack.yml")))

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := "resolve:\n  compose_file: stack.yml\n  basedir: " + dir + "\n  use_environment: false\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0644))

	out, err := execute(t, "--config", configPath, "resolve", "-p", "TAG=3")
	require.NoError(t, err)
	assert.Contains(t, out, "shop/web:3")
}

func TestResolveCommand_Errors(t *testing.T) {
	dir := writeProject(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing basedir", []string{"resolve", "--basedir", filepath.Join(dir, "missing")}, ExitResolveError},
		{"missing file", []string{"resolve", "--basedir", dir, "-f", "nope.yml"}, ExitResolveError},
		{"bad output", []string{"resolve", "--basedir", dir, "-o", "xml"}, ExitConfigError},
		{"bad property", []string{"resolve", "--basedir", dir, "-p", "TAG"}, ExitConfigError},
		{"unknown flag", []string{"resolve", "--bogus"}, ExitConfigError},
		{"missing config file", []string{"--config", filepath.Join(dir, "missing.yaml"), "resolve", "--basedir", dir}, ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestResolveCommand_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("version: \"3\"\nservices:\n  a:\n    image: x\n"), 0644))

	_, err := execute(t, "resolve", "--basedir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitResolveError, exitCode(err))
	assert.ErrorIs(t, err, compose.ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "2.x")
}

// =============================================================================
// Plan Command Tests
// =============================================================================

func TestPlanCommand_StartOrder(t *testing.T) {
	dir := writeProject(t)

	out, err := execute(t, "plan", "--basedir", dir, "--no-env", "-p", "TAG=1", "--project-name", "shop")
	require.NoError(t, err)

	var plans []deployment.ContainerPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plans))
	require.Len(t, plans, 2)

	assert.Equal(t, "shop_db", plans[0].Name)
	assert.Equal(t, "shop_web", plans[1].Name)
	assert.Equal(t, "shop/web:1", plans[1].Config.Image)
	assert.Equal(t, []string{"nginx", "-g", "daemon off;"}, []string(plans[1].Config.Cmd))
	assert.Contains(t, plans[1].HostConfig.PortBindings, nat.Port("80/tcp"))
}

func TestResolveCommand_EmptyServices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("version: \"2\"\nservices: {}\n"), 0644))

	out, err := execute(t, "resolve", "--basedir", dir, "--no-env")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestProjectName(t *testing.T) {
	name, err := projectName(ResolveConfig{ProjectName: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", name)

	dir := filepath.Join(t.TempDir(), "myapp")
	name, err = projectName(ResolveConfig{Basedir: dir})
	require.NoError(t, err)
	assert.Equal(t, "myapp", name)
}

// =============================================================================
// Property Parsing Tests
// =============================================================================

func TestParseProperties(t *testing.T) {
	props, err := parseProperties([]string{"A=1", "B=x=y", "C=", "A=2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "2", "B": "x=y", "C": ""}, props)

	_, err = parseProperties([]string{"=v"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "composeresolve dev")
}
