package compose

// =============================================================================
// ImageConfiguration - Main Output Type
// =============================================================================

// ImageConfiguration is the resolved unit handed to the image build/run
// pipeline. One is produced per declared service.
type ImageConfiguration struct {
	Service string              `json:"service"` // key in the services mapping
	Name    string              `json:"name"`    // image reference
	Alias   string              `json:"alias"`   // service key or container_name
	Build   *BuildConfiguration `json:"build,omitempty"`
	Run     RunConfiguration    `json:"run"`
}

// BuildConfiguration holds the build section of a service.
type BuildConfiguration struct {
	ContextDir string            `json:"context_dir"` // absolute
	Dockerfile string            `json:"dockerfile,omitempty"`
	Args       map[string]string `json:"args,omitempty"`
	Target     string            `json:"target,omitempty"`
}

// =============================================================================
// Run Configuration
// =============================================================================

// RunConfiguration aggregates how a container for the image is started.
type RunConfiguration struct {
	CapAdd           []string            `json:"cap_add,omitempty"`
	CapDrop          []string            `json:"cap_drop,omitempty"`
	Cmd              *Arguments          `json:"cmd,omitempty"`
	Entrypoint       *Arguments          `json:"entrypoint,omitempty"`
	DNS              []string            `json:"dns,omitempty"`
	DNSSearch        []string            `json:"dns_search,omitempty"`
	Domainname       string              `json:"domainname,omitempty"`
	ExtraHosts       []string            `json:"extra_hosts,omitempty"`
	Hostname         string              `json:"hostname,omitempty"`
	Links            []string            `json:"links,omitempty"`
	DependsOn        []string            `json:"depends_on,omitempty"`
	Memory           *int64              `json:"memory,omitempty"`
	MemorySwap       *int64              `json:"memory_swap,omitempty"`
	ShmSize          *int64              `json:"shm_size,omitempty"`
	CPUShares        *int64              `json:"cpu_shares,omitempty"`
	Cpuset           string              `json:"cpuset,omitempty"`
	NamingStrategy   NamingStrategy      `json:"naming_strategy"`
	EnvPropertyFile  string              `json:"env_property_file,omitempty"`
	Ports            []string            `json:"ports,omitempty"`
	PortPropertyFile string              `json:"port_property_file,omitempty"`
	Privileged       bool                `json:"privileged"`
	ReadOnly         bool                `json:"read_only"`
	User             string              `json:"user,omitempty"`
	Volumes          VolumeConfiguration `json:"volumes"`
	WorkingDir       string              `json:"working_dir,omitempty"`
	Env              map[string]string   `json:"env,omitempty"`
	Labels           map[string]string   `json:"labels,omitempty"`
	RestartPolicy    *RestartPolicy      `json:"restart_policy,omitempty"`
	NetworkMode      string              `json:"network_mode,omitempty"`
	Networks         []string            `json:"networks,omitempty"`
	Tmpfs            []string            `json:"tmpfs,omitempty"`
	SecurityOpts     []string            `json:"security_opts,omitempty"`
	Ulimits          []Ulimit            `json:"ulimits,omitempty"`
	Log              *LogConfiguration   `json:"log,omitempty"`
}

// VolumeConfiguration holds bind strings and volumes_from sources.
// Bind order mirrors declaration order and must be preserved.
type VolumeConfiguration struct {
	Bind []string `json:"bind,omitempty"`
	From []string `json:"from,omitempty"`
}

// NamingStrategy determines how the container for an image is named.
type NamingStrategy string

const (
	NamingNone  NamingStrategy = "none"
	NamingAlias NamingStrategy = "alias"
)

// RestartPolicy is a parsed "name[:retry]" restart declaration.
type RestartPolicy struct {
	Name  string `json:"name"`
	Retry int    `json:"retry"`
}

// Known restart policy names.
const (
	RestartNo            = "no"
	RestartAlways        = "always"
	RestartOnFailure     = "on-failure"
	RestartUnlessStopped = "unless-stopped"
)

// Ulimit is a single resource limit. Soft equals Hard for the single-value form.
type Ulimit struct {
	Name string `json:"name"`
	Soft int64  `json:"soft"`
	Hard int64  `json:"hard"`
}

// LogConfiguration selects the logging driver of the container.
type LogConfiguration struct {
	Driver  string            `json:"driver,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}
