package deployment

import (
	"github.com/artpar/composeresolve/internal/core/compose"
	"github.com/docker/docker/api/types/container"
)

// =============================================================================
// Container Plan Types
// =============================================================================

// ContainerPlan represents a planned container configuration.
// This is the pure output of planning, ready for an engine to execute.
type ContainerPlan struct {
	Name       string
	Config     *container.Config
	HostConfig *container.HostConfig
	Networks   []string
}

// =============================================================================
// Builder Parameter Types
// =============================================================================

// BuildContainerPlanParams contains all inputs for building a container plan.
type BuildContainerPlanParams struct {
	ProjectName string
	Image       compose.ImageConfiguration
}

// =============================================================================
// Container Labels
// =============================================================================

// Label keys used for container identification.
const (
	LabelManaged = "io.composeresolve.managed"
	LabelProject = "io.composeresolve.project"
	LabelService = "io.composeresolve.service"
)
