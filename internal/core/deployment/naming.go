package deployment

import (
	"fmt"

	"github.com/artpar/composeresolve/internal/core/compose"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// NetworkName generates a network name for a project network.
// Pattern: {project}_{network}
//
// Example:
//
//	NetworkName("demo", "backend") // returns "demo_backend"
func NetworkName(project, network string) string {
	if project == "" {
		return network
	}
	return fmt.Sprintf("%s_%s", project, network)
}

// ContainerName generates the container name for an image.
// With the alias naming strategy the alias is used verbatim,
// otherwise the pattern is {project}_{alias}.
//
// Example:
//
//	ContainerName("demo", compose.ImageConfiguration{Alias: "web"}) // returns "demo_web"
func ContainerName(project string, image compose.ImageConfiguration) string {
	if image.Run.NamingStrategy == compose.NamingAlias || project == "" {
		return image.Alias
	}
	return fmt.Sprintf("%s_%s", project, image.Alias)
}
