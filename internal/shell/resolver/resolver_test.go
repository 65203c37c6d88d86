package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/artpar/composeresolve/internal/shell/filter"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const simpleCompose = `
version: "2"
services:
  service:
    image: "image"
    cap_add:
      - CAP
    cap_drop:
      - CAP
    command: command.sh
    dns:
      - 8.8.8.8
    dns_search:
      - example.com
    domainname: domain.com
    entrypoint: entrypoint.sh
    environment:
      NAME: name
      BOOL: true
    extra_hosts:
      - "localhost:127.0.0.1"
    hostname: subdomain
    links:
      - redis
      - link1
    mem_limit: 1
    memswap_limit: 1
    ports:
      - "8081:8080"
    privileged: true
    restart: on-failure:1
    user: tomcat
    volumes:
      - /foo
      - /tmp:/tmp:rw
      - namedvolume:/volume:ro
      - compose/version:/tmp/version
    volumes_from:
      - from
    working_dir: foo
`

const version2Compose = `
version: "2"
services:
  web:
    image: nginx
`

const version2xCompose = `
version: "2.1"
services:
  web:
    image: nginx
`

const wrongVersionCompose = `
version: "3"
services:
  web:
    image: nginx
`

const noVersionCompose = `
services:
  web:
    image: nginx
`

// relativeBindPattern matches both Windows and Unix absolute forms of the
// resolved relative bind.
var relativeBindPattern = regexp.MustCompile(`^([A-Z]:|/).*compose[\\/]version:.*`)

// =============================================================================
// Test Helpers
// =============================================================================

// setup writes the compose file into its own directory and returns an
// external config whose basedir is a different directory that contains
// compose/version, so relative binds resolve to a real path.
func setup(t *testing.T, content string) ExternalConfig {
	t.Helper()

	composeDir := t.TempDir()
	composeFile := filepath.Join(composeDir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(composeFile, []byte(content), 0644))

	basedir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(basedir, "compose", "version"), 0755))

	return ExternalConfigFromMap(map[string]string{
		KeyComposeFile: composeFile,
		KeyBasedir:     basedir,
	})
}

func newResolver() *Resolver {
	return New(filter.NewPropertyFilter(nil), nil)
}

type recordingFilter struct {
	requests []filter.Request
	content  []byte
	err      error
}

func (f *recordingFilter) Filter(req filter.Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	return f.content, f.err
}

// =============================================================================
// Resolve Tests
// =============================================================================

func TestResolve_Simple(t *testing.T) {
	ext := setup(t, simpleCompose)

	configs, err := newResolver().Resolve(ext, ProjectContext{})
	require.NoError(t, err)
	require.Len(t, configs, 1)

	run := configs[0].Run
	assert.Equal(t, []string{"CAP"}, run.CapAdd)
	assert.Equal(t, []string{"CAP"}, run.CapDrop)
	assert.Equal(t, "command.sh", run.Cmd.Shell)
	assert.Equal(t, []string{"8.8.8.8"}, run.DNS)
	assert.Equal(t, []string{"example.com"}, run.DNSSearch)
	assert.Equal(t, "domain.com", run.Domainname)
	assert.Equal(t, "entrypoint.sh", run.Entrypoint.Shell)
	assert.Equal(t, []string{"localhost:127.0.0.1"}, run.ExtraHosts)
	assert.Equal(t, "subdomain", run.Hostname)
	assert.Equal(t, []string{"redis", "link1"}, run.Links)
	assert.Equal(t, int64(1), *run.Memory)
	assert.Equal(t, int64(1), *run.MemorySwap)
	assert.Equal(t, compose.NamingNone, run.NamingStrategy)
	assert.Empty(t, run.EnvPropertyFile)
	assert.Empty(t, run.PortPropertyFile)
	assert.Equal(t, []string{"8081:8080"}, run.Ports)
	assert.True(t, run.Privileged)
	assert.Equal(t, "tomcat", run.User)
	assert.Equal(t, []string{"from"}, run.Volumes.From)
	assert.Equal(t, "foo", run.WorkingDir)

	assert.Len(t, run.Env, 2)
	assert.Equal(t, "name", run.Env["NAME"])
	assert.Equal(t, "true", run.Env["BOOL"])

	assert.Equal(t, "on-failure", run.RestartPolicy.Name)
	assert.Equal(t, 1, run.RestartPolicy.Retry)

	binds := run.Volumes.Bind
	require.Len(t, binds, 4, "Expected 4 bind statements")
	assert.Equal(t, []string{"/foo", "/tmp:/tmp:rw", "namedvolume:/volume:ro"}, binds[:3])

	relative := binds[3]
	assert.Regexp(t, relativeBindPattern, relative)
	assert.True(t, strings.HasPrefix(relative, ext.Basedir))

	hostPath := strings.TrimSuffix(relative, ":/tmp/version")
	assert.DirExists(t, hostPath)
}

func TestResolve_PositiveVersions(t *testing.T) {
	for _, content := range []string{version2Compose, version2xCompose} {
		configs, err := newResolver().Resolve(setup(t, content), ProjectContext{})
		require.NoError(t, err)
		assert.NotNil(t, configs)
	}
}

func TestResolve_NegativeVersions(t *testing.T) {
	tests := map[string]error{
		wrongVersionCompose: compose.ErrUnsupportedVersion,
		noVersionCompose:    compose.ErrNoVersion,
	}

	for content, wantErr := range tests {
		configs, err := newResolver().Resolve(setup(t, content), ProjectContext{})
		require.Error(t, err)
		assert.Nil(t, configs)
		assert.ErrorIs(t, err, wantErr)
		assert.Contains(t, err.Error(), "2.x")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	ext := setup(t, simpleCompose)
	r := newResolver()

	first, err := r.Resolve(ext, ProjectContext{})
	require.NoError(t, err)
	second, err := r.Resolve(ext, ProjectContext{})
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated resolve differs (-first +second):\n%s", diff)
	}
}

func TestResolve_ServicesInDeclarationOrder(t *testing.T) {
	ext := setup(t, `
version: "2"
services:
  web:
    image: nginx
    depends_on: [db]
  db:
    image: postgres
  cache:
    image: redis
`)

	configs, err := newResolver().Resolve(ext, ProjectContext{Name: "shop"})
	require.NoError(t, err)
	require.Len(t, configs, 3)
	assert.Equal(t, "web", configs[0].Alias)
	assert.Equal(t, "db", configs[1].Alias)
	assert.Equal(t, "cache", configs[2].Alias)
}

func TestResolve_ForwardsFilterRequest(t *testing.T) {
	ext := setup(t, version2Compose)
	rf := &recordingFilter{content: []byte(version2Compose)}

	props := map[string]string{"TAG": "1.0"}
	_, err := New(rf, nil).Resolve(ext, ProjectContext{
		Basedir:        ext.Basedir,
		Properties:     props,
		PropertyFiles:  []string{"build.env"},
		UseEnvironment: true,
	})
	require.NoError(t, err)

	require.Len(t, rf.requests, 1)
	req := rf.requests[0]
	assert.Equal(t, ext.ComposeFile, req.File)
	assert.Equal(t, props, req.Properties)
	assert.Equal(t, []string{filepath.Join(ext.Basedir, "build.env")}, req.PropertyFiles)
	assert.True(t, req.UseEnvironment)
}

func TestResolve_SubstitutesProperties(t *testing.T) {
	ext := setup(t, `
version: "2"
services:
  web:
    image: "nginx:${TAG}"
    user: "${RUN_AS:-nobody}"
`)

	configs, err := newResolver().Resolve(ext, ProjectContext{Properties: map[string]string{"TAG": "1.25"}})
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.25", configs[0].Name)
	assert.Equal(t, "nobody", configs[0].Run.User)
}

func TestResolve_UnreadableSource(t *testing.T) {
	basedir := t.TempDir()

	configs, err := newResolver().Resolve(ExternalConfig{
		ComposeFile: filepath.Join(basedir, "missing.yml"),
		Basedir:     basedir,
	}, ProjectContext{})
	require.Error(t, err)
	assert.Nil(t, configs)
	assert.ErrorIs(t, err, ErrUnreadableSource)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_FilterFailure(t *testing.T) {
	ext := setup(t, version2Compose)
	rf := &recordingFilter{err: errors.New("boom")}

	_, err := New(rf, nil).Resolve(ext, ProjectContext{})
	assert.ErrorIs(t, err, ErrUnreadableSource)
	assert.Contains(t, err.Error(), "boom")
}

func TestResolve_UnparsableDocument(t *testing.T) {
	ext := setup(t, "version: \"2\"\nservices: [\n")

	_, err := newResolver().Resolve(ext, ProjectContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, compose.ErrInvalidYAML)
	assert.NotErrorIs(t, err, ErrUnreadableSource)
}

func TestResolve_MalformedFieldFailsWholeCall(t *testing.T) {
	ext := setup(t, `
version: "2"
services:
  good:
    image: nginx
  bad:
    image: nginx
    volumes:
      - a:b:c:d
`)

	configs, err := newResolver().Resolve(ext, ProjectContext{})
	require.Error(t, err)
	assert.Nil(t, configs)
	assert.ErrorIs(t, err, compose.ErrInvalidBind)
	assert.Contains(t, err.Error(), "services.bad")
	assert.Contains(t, err.Error(), "a:b:c:d")
}

func TestResolve_DefaultsAndRelativePaths(t *testing.T) {
	root := t.TempDir()
	basedir := filepath.Join(root, "src", "main", "docker")
	require.NoError(t, os.MkdirAll(basedir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(basedir, DefaultComposeFile), []byte(`
version: "2"
services:
  app:
    build: ./app
    volumes:
      - ./data:/data
`), 0644))

	configs, err := newResolver().Resolve(
		ExternalConfig{Basedir: filepath.Join("src", "main", "docker")},
		ProjectContext{Basedir: root, Name: "demo"},
	)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	assert.Equal(t, "demo_app", configs[0].Name)
	assert.Equal(t, filepath.Join(basedir, "app"), configs[0].Build.ContextDir)
	assert.Equal(t, []string{filepath.Join(basedir, "data") + ":/data"}, configs[0].Run.Volumes.Bind)
}

func TestResolve_ProjectNameDefaultsToBasedir(t *testing.T) {
	root := t.TempDir()
	basedir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(basedir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(basedir, DefaultComposeFile), []byte(version2Compose+"  api: {}\n"), 0644))

	configs, err := newResolver().Resolve(ExternalConfig{Basedir: basedir}, ProjectContext{})
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "shop_api", configs[1].Name)
}

func TestResolve_MissingBasedir(t *testing.T) {
	_, err := newResolver().Resolve(ExternalConfig{
		ComposeFile: "docker-compose.yml",
		Basedir:     filepath.Join(t.TempDir(), "missing"),
	}, ProjectContext{})
	assert.ErrorIs(t, err, ErrInvalidExternalConfig)
}

func TestExternalConfigFromMap(t *testing.T) {
	ext := ExternalConfigFromMap(map[string]string{
		"composeFile": "compose.yml",
		"basedir":     "/project",
		"other":       "ignored",
	})
	assert.Equal(t, ExternalConfig{ComposeFile: "compose.yml", Basedir: "/project"}, ext)
}
