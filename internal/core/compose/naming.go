package compose

import (
	"regexp"
	"strings"
)

// =============================================================================
// Image Naming Functions
// =============================================================================

var invalidImageNameChars = regexp.MustCompile(`[^a-z0-9_.-]+`)

// DefaultImageName derives an image name for a service that declares none.
// Pattern: {project}_{service}, lower-cased
//
// Example:
//
//	DefaultImageName("My App", "web") // returns "myapp_web"
func DefaultImageName(project, service string) string {
	name := service
	if project != "" {
		name = project + "_" + service
	}
	return invalidImageNameChars.ReplaceAllString(strings.ToLower(name), "")
}
