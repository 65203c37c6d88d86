package compose

import (
	"strconv"
	"strings"

	"github.com/artpar/composeresolve/internal/core/hostpath"
)

// =============================================================================
// Field Translator
// =============================================================================

// TranslateOptions carries everything translation needs besides the service.
type TranslateOptions struct {
	// Basedir anchors relative host paths. It must be absolute and need not
	// be the directory of the compose file.
	Basedir string
	// ProjectName is used to derive image names for services without "image".
	ProjectName string
}

// translation is the per-service scratch state of one TranslateService call.
type translation struct {
	service string
	opts    TranslateOptions
	image   ImageConfiguration
}

func (t *translation) run() *RunConfiguration {
	return &t.image.Run
}

type fieldFunc func(t *translation, field string, v Value) error

// fieldHandlers maps each recognized compose key to its translation rule.
var fieldHandlers = map[string]fieldFunc{
	"image":          setString(func(t *translation) *string { return &t.image.Name }),
	"build":          (*translation).build,
	"container_name": (*translation).containerName,

	"command":    setArguments(func(r *RunConfiguration) **Arguments { return &r.Cmd }),
	"entrypoint": setArguments(func(r *RunConfiguration) **Arguments { return &r.Entrypoint }),

	"cap_add":      setList(func(r *RunConfiguration) *[]string { return &r.CapAdd }),
	"cap_drop":     setList(func(r *RunConfiguration) *[]string { return &r.CapDrop }),
	"dns":          setList(func(r *RunConfiguration) *[]string { return &r.DNS }),
	"dns_search":   setList(func(r *RunConfiguration) *[]string { return &r.DNSSearch }),
	"links":        setList(func(r *RunConfiguration) *[]string { return &r.Links }),
	"ports":        setList(func(r *RunConfiguration) *[]string { return &r.Ports }),
	"security_opt": setList(func(r *RunConfiguration) *[]string { return &r.SecurityOpts }),
	"tmpfs":        appendList(func(r *RunConfiguration) *[]string { return &r.Tmpfs }),
	"volumes_from": setList(func(r *RunConfiguration) *[]string { return &r.Volumes.From }),
	"extra_hosts":  (*translation).extraHosts,
	"depends_on":   setKeys(func(r *RunConfiguration) *[]string { return &r.DependsOn }),
	"networks":     setKeys(func(r *RunConfiguration) *[]string { return &r.Networks }),

	"hostname":     setRunString(func(r *RunConfiguration) *string { return &r.Hostname }),
	"domainname":   setRunString(func(r *RunConfiguration) *string { return &r.Domainname }),
	"user":         setRunString(func(r *RunConfiguration) *string { return &r.User }),
	"working_dir":  setRunString(func(r *RunConfiguration) *string { return &r.WorkingDir }),
	"cpuset":       setRunString(func(r *RunConfiguration) *string { return &r.Cpuset }),
	"network_mode": setRunString(func(r *RunConfiguration) *string { return &r.NetworkMode }),
	"net":          setRunString(func(r *RunConfiguration) *string { return &r.NetworkMode }),

	"mem_limit":     setBytes(func(r *RunConfiguration) **int64 { return &r.Memory }),
	"memswap_limit": setBytes(func(r *RunConfiguration) **int64 { return &r.MemorySwap }),
	"shm_size":      setBytes(func(r *RunConfiguration) **int64 { return &r.ShmSize }),
	"cpu_shares":    (*translation).cpuShares,

	"privileged": setBool(func(r *RunConfiguration) *bool { return &r.Privileged }),
	"read_only":  setBool(func(r *RunConfiguration) *bool { return &r.ReadOnly }),

	"restart":     (*translation).restart,
	"environment": setMap(func(r *RunConfiguration) *map[string]string { return &r.Env }),
	"labels":      setMap(func(r *RunConfiguration) *map[string]string { return &r.Labels }),
	"env_file":    (*translation).envFile,
	"volumes":     (*translation).volumes,
	"ulimits":     (*translation).ulimits,
	"logging":     (*translation).logging,
}

// Translate builds one ImageConfiguration per declared service, in
// declaration order. Either every service translates or an error is returned.
func Translate(doc *Document, opts TranslateOptions) ([]ImageConfiguration, error) {
	services, err := doc.Services()
	if err != nil {
		return nil, err
	}

	images := make([]ImageConfiguration, 0, len(services))
	for _, svc := range services {
		image, err := TranslateService(svc, opts)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

// TranslateService converts one service descriptor into an ImageConfiguration.
// Unknown keys are ignored.
func TranslateService(svc ServiceDescriptor, opts TranslateOptions) (ImageConfiguration, error) {
	t := &translation{
		service: svc.Name,
		opts:    opts,
		image: ImageConfiguration{
			Service: svc.Name,
			Alias:   svc.Name,
			Run: RunConfiguration{
				NamingStrategy: NamingNone,
			},
		},
	}

	for _, e := range svc.Fields.Entries {
		handler, ok := fieldHandlers[e.Key]
		if !ok {
			continue
		}
		if err := handler(t, e.Key, e.Value); err != nil {
			return ImageConfiguration{}, err
		}
	}

	if t.image.Name == "" {
		t.image.Name = DefaultImageName(opts.ProjectName, svc.Name)
	}

	return t.image, nil
}

// UnknownKeys lists the service keys TranslateService ignores, in declaration order.
func UnknownKeys(svc ServiceDescriptor) []string {
	var unknown []string
	for _, key := range svc.Fields.Keys() {
		if _, ok := fieldHandlers[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// =============================================================================
// Generic Field Rules
// =============================================================================

func setString(target func(*translation) *string) fieldFunc {
	return func(t *translation, field string, v Value) error {
		s, err := t.str(field, v)
		if err != nil {
			return err
		}
		*target(t) = s
		return nil
	}
}

func setRunString(target func(*RunConfiguration) *string) fieldFunc {
	return setString(func(t *translation) *string { return target(t.run()) })
}

func setList(target func(*RunConfiguration) *[]string) fieldFunc {
	return func(t *translation, field string, v Value) error {
		list, err := t.stringList(field, v)
		if err != nil {
			return err
		}
		*target(t.run()) = list
		return nil
	}
}

// appendList is used where a long-form volume may already have contributed.
func appendList(target func(*RunConfiguration) *[]string) fieldFunc {
	return func(t *translation, field string, v Value) error {
		list, err := t.stringList(field, v)
		if err != nil {
			return err
		}
		dst := target(t.run())
		*dst = append(*dst, list...)
		return nil
	}
}

func setKeys(target func(*RunConfiguration) *[]string) fieldFunc {
	return func(t *translation, field string, v Value) error {
		list, err := t.keysOrList(field, v)
		if err != nil {
			return err
		}
		*target(t.run()) = list
		return nil
	}
}

func setBytes(target func(*RunConfiguration) **int64) fieldFunc {
	return func(t *translation, field string, v Value) error {
		n, err := t.byteSize(field, v)
		if err != nil {
			return err
		}
		*target(t.run()) = n
		return nil
	}
}

func setBool(target func(*RunConfiguration) *bool) fieldFunc {
	return func(t *translation, field string, v Value) error {
		b, err := t.boolean(field, v)
		if err != nil {
			return err
		}
		*target(t.run()) = b
		return nil
	}
}

func setMap(target func(*RunConfiguration) *map[string]string) fieldFunc {
	return func(t *translation, field string, v Value) error {
		m, err := t.keyValues(field, v)
		if err != nil {
			return err
		}
		*target(t.run()) = m
		return nil
	}
}

func setArguments(target func(*RunConfiguration) **Arguments) fieldFunc {
	return func(t *translation, field string, v Value) error {
		switch v.Kind {
		case KindNull:
			return nil
		case KindScalar:
			*target(t.run()) = ShellForm(v.Scalar.Text)
			return nil
		case KindSequence:
			args, err := t.stringList(field, v)
			if err != nil {
				return err
			}
			*target(t.run()) = ExecForm(args)
			return nil
		}
		return t.invalid(field, v, "expected a string or a list of strings")
	}
}

// =============================================================================
// Specific Field Rules
// =============================================================================

func (t *translation) containerName(field string, v Value) error {
	name, err := t.str(field, v)
	if err != nil || name == "" {
		return err
	}
	t.image.Alias = name
	t.run().NamingStrategy = NamingAlias
	return nil
}

func (t *translation) build(field string, v Value) error {
	build := &BuildConfiguration{}
	context := "."

	switch v.Kind {
	case KindScalar:
		context = v.Scalar.Text
	case KindMapping:
		for _, e := range v.Entries {
			var err error
			switch e.Key {
			case "context":
				context, err = t.str(field+".context", e.Value)
			case "dockerfile":
				build.Dockerfile, err = t.str(field+".dockerfile", e.Value)
			case "target":
				build.Target, err = t.str(field+".target", e.Value)
			case "args":
				build.Args, err = t.keyValues(field+".args", e.Value)
			}
			if err != nil {
				return err
			}
		}
	default:
		return t.invalid(field, v, "expected a context path or a build mapping")
	}

	if isRemoteContext(context) {
		build.ContextDir = context
	} else {
		build.ContextDir = hostpath.Resolve(context, t.opts.Basedir)
	}
	t.image.Build = build
	return nil
}

func isRemoteContext(context string) bool {
	return strings.Contains(context, "://") || strings.HasPrefix(context, "git@")
}

func (t *translation) extraHosts(field string, v Value) error {
	if v.Kind != KindMapping {
		return setList(func(r *RunConfiguration) *[]string { return &r.ExtraHosts })(t, field, v)
	}

	hosts := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		ip, err := t.str(field+"."+e.Key, e.Value)
		if err != nil {
			return err
		}
		hosts = append(hosts, e.Key+":"+ip)
	}
	t.run().ExtraHosts = hosts
	return nil
}

func (t *translation) cpuShares(field string, v Value) error {
	n, err := t.integer(field, v)
	if err != nil {
		return err
	}
	t.run().CPUShares = &n
	return nil
}

func (t *translation) restart(field string, v Value) error {
	raw, err := t.str(field, v)
	if err != nil || raw == "" {
		return err
	}
	policy, err := ParseRestartPolicy(raw)
	if err != nil {
		return t.scope(field, err)
	}
	t.run().RestartPolicy = &policy
	return nil
}

func (t *translation) envFile(field string, v Value) error {
	files, err := t.stringList(field, v)
	if err != nil {
		return err
	}
	switch len(files) {
	case 0:
		return nil
	case 1:
		t.run().EnvPropertyFile = hostpath.Resolve(files[0], t.opts.Basedir)
		return nil
	}
	return t.invalid(field, v, "only a single env_file is supported")
}

func (t *translation) ulimits(field string, v Value) error {
	if v.Kind == KindNull {
		return nil
	}
	if v.Kind != KindMapping {
		return t.invalid(field, v, "expected a mapping of limits")
	}

	limits := make([]Ulimit, 0, len(v.Entries))
	for _, e := range v.Entries {
		limitField := field + "." + e.Key
		limit := Ulimit{Name: e.Key}

		switch e.Value.Kind {
		case KindScalar:
			n, err := t.integer(limitField, e.Value)
			if err != nil {
				return err
			}
			limit.Soft, limit.Hard = n, n
		case KindMapping:
			soft, ok := e.Value.Get("soft")
			if !ok {
				return t.invalid(limitField, e.Value, "soft limit is required")
			}
			hard, ok := e.Value.Get("hard")
			if !ok {
				return t.invalid(limitField, e.Value, "hard limit is required")
			}
			var err error
			if limit.Soft, err = t.integer(limitField+".soft", soft); err != nil {
				return err
			}
			if limit.Hard, err = t.integer(limitField+".hard", hard); err != nil {
				return err
			}
		default:
			return t.invalid(limitField, e.Value, "expected a number or {soft, hard}")
		}
		limits = append(limits, limit)
	}
	t.run().Ulimits = limits
	return nil
}

func (t *translation) logging(field string, v Value) error {
	if v.Kind == KindNull {
		return nil
	}
	if v.Kind != KindMapping {
		return t.invalid(field, v, "expected a logging mapping")
	}

	log := &LogConfiguration{}
	for _, e := range v.Entries {
		var err error
		switch e.Key {
		case "driver":
			log.Driver, err = t.str(field+".driver", e.Value)
		case "options":
			log.Options, err = t.keyValues(field+".options", e.Value)
		}
		if err != nil {
			return err
		}
	}
	t.run().Log = log
	return nil
}

// itemField formats an indexed field path, e.g. "volumes[2]".
func itemField(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
