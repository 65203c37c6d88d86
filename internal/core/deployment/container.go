package deployment

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
	"github.com/samber/lo"
)

// =============================================================================
// Container Plan Building Functions
// =============================================================================

// BuildContainerPlan builds a ContainerPlan from a resolved image configuration.
//
// This is a pure function that maps the resolved run configuration onto the
// Docker Engine API types an engine passes to ContainerCreate.
//
// The function:
//   - Generates the container name using ContainerName()
//   - Splits shell-form command and entrypoint into argument vectors
//   - Renders environment variables sorted by key
//   - Parses port specs into exposed ports and bindings
//   - Separates anonymous volumes from host and named binds
//   - Maps restart policy, limits, ulimits and logging to Docker format
//   - Merges service labels with the management labels
//
// Example:
//
//	plan, err := BuildContainerPlan(BuildContainerPlanParams{
//	    ProjectName: "demo",
//	    Image:       compose.ImageConfiguration{Service: "web", Alias: "web", Name: "nginx:latest"},
//	})
func BuildContainerPlan(params BuildContainerPlanParams) (ContainerPlan, error) {
	img := params.Image
	run := img.Run

	cmd, err := run.Cmd.Exec()
	if err != nil {
		return ContainerPlan{}, fmt.Errorf("service %s: invalid command %q: %w", img.Service, run.Cmd.String(), err)
	}
	entrypoint, err := run.Entrypoint.Exec()
	if err != nil {
		return ContainerPlan{}, fmt.Errorf("service %s: invalid entrypoint %q: %w", img.Service, run.Entrypoint.String(), err)
	}

	exposed, bindings, err := nat.ParsePortSpecs(run.Ports)
	if err != nil {
		return ContainerPlan{}, fmt.Errorf("service %s: invalid ports: %w", img.Service, err)
	}

	config := &container.Config{
		Image:        img.Name,
		Hostname:     run.Hostname,
		Domainname:   run.Domainname,
		User:         run.User,
		WorkingDir:   run.WorkingDir,
		Env:          renderEnv(run.Env),
		Labels:       map[string]string{},
		ExposedPorts: exposed,
	}
	if cmd != nil {
		config.Cmd = strslice.StrSlice(cmd)
	}
	if entrypoint != nil {
		config.Entrypoint = strslice.StrSlice(entrypoint)
	}

	hostConfig := &container.HostConfig{
		PortBindings:   bindings,
		VolumesFrom:    run.Volumes.From,
		CapAdd:         strslice.StrSlice(run.CapAdd),
		CapDrop:        strslice.StrSlice(run.CapDrop),
		DNS:            run.DNS,
		DNSSearch:      run.DNSSearch,
		ExtraHosts:     run.ExtraHosts,
		Links:          renderLinks(run.Links),
		Privileged:     run.Privileged,
		ReadonlyRootfs: run.ReadOnly,
		SecurityOpt:    run.SecurityOpts,
		NetworkMode:    container.NetworkMode(run.NetworkMode),
	}

	// Volume binds
	for _, bind := range run.Volumes.Bind {
		if !strings.Contains(bind, ":") {
			if config.Volumes == nil {
				config.Volumes = map[string]struct{}{}
			}
			config.Volumes[bind] = struct{}{}
			continue
		}
		hostConfig.Binds = append(hostConfig.Binds, bind)
	}

	// Tmpfs mounts, "path[:options]"
	if len(run.Tmpfs) > 0 {
		hostConfig.Tmpfs = make(map[string]string, len(run.Tmpfs))
		for _, t := range run.Tmpfs {
			path, opts, _ := strings.Cut(t, ":")
			hostConfig.Tmpfs[path] = opts
		}
	}

	// Resource limits
	if run.Memory != nil {
		hostConfig.Memory = *run.Memory
	}
	if run.MemorySwap != nil {
		hostConfig.MemorySwap = *run.MemorySwap
	}
	if run.ShmSize != nil {
		hostConfig.ShmSize = *run.ShmSize
	}
	if run.CPUShares != nil {
		hostConfig.CPUShares = *run.CPUShares
	}
	hostConfig.CpusetCpus = run.Cpuset
	hostConfig.Ulimits = lo.Map(run.Ulimits, func(u compose.Ulimit, _ int) *units.Ulimit {
		return &units.Ulimit{Name: u.Name, Soft: u.Soft, Hard: u.Hard}
	})

	// Restart policy
	if run.RestartPolicy != nil {
		hostConfig.RestartPolicy = container.RestartPolicy{
			Name:              container.RestartPolicyMode(run.RestartPolicy.Name),
			MaximumRetryCount: run.RestartPolicy.Retry,
		}
	}

	// Logging
	if run.Log != nil {
		hostConfig.LogConfig = container.LogConfig{
			Type:   run.Log.Driver,
			Config: run.Log.Options,
		}
	}

	// Copy service labels, management labels win
	maps.Copy(config.Labels, run.Labels)
	config.Labels[LabelManaged] = "true"
	config.Labels[LabelService] = img.Service
	if params.ProjectName != "" {
		config.Labels[LabelProject] = params.ProjectName
	}

	return ContainerPlan{
		Name:       ContainerName(params.ProjectName, img),
		Config:     config,
		HostConfig: hostConfig,
		Networks: lo.Map(run.Networks, func(n string, _ int) string {
			return NetworkName(params.ProjectName, n)
		}),
	}, nil
}

// renderEnv renders KEY=VALUE pairs sorted by key.
func renderEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

// renderLinks expands "service" to the "service:service" form the engine expects.
func renderLinks(links []string) []string {
	return lo.Map(links, func(l string, _ int) string {
		if strings.Contains(l, ":") {
			return l
		}
		return l + ":" + l
	})
}
