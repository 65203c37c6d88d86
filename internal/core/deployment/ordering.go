package deployment

import (
	"github.com/artpar/composeresolve/internal/core/compose"
)

// =============================================================================
// Start Ordering Functions
// =============================================================================

// StartOrder sorts images so that every image comes after the services it
// depends on, using Kahn's algorithm.
//
// Ties are broken by declaration order, so images without dependencies keep
// their relative order. Dependencies on undeclared services are ignored.
// If a cycle exists, the remaining images are appended in declaration order.
//
// Example:
//
//	// Services: web → api → db
//	images := []compose.ImageConfiguration{
//	    {Service: "web", Run: compose.RunConfiguration{DependsOn: []string{"api"}}},
//	    {Service: "api", Run: compose.RunConfiguration{DependsOn: []string{"db"}}},
//	    {Service: "db"},
//	}
//	sorted := StartOrder(images)
//	// Result: [db, api, web]
func StartOrder(images []compose.ImageConfiguration) []compose.ImageConfiguration {
	if len(images) == 0 {
		return images
	}

	declared := make(map[string]bool, len(images))
	for _, img := range images {
		declared[img.Service] = true
	}

	// Count only dependencies on declared services
	inDegree := make([]int, len(images))
	dependents := make(map[string][]int)
	for i, img := range images {
		for _, dep := range img.Run.DependsOn {
			if !declared[dep] || dep == img.Service {
				continue
			}
			inDegree[i]++
			dependents[dep] = append(dependents[dep], i)
		}
	}

	result := make([]compose.ImageConfiguration, 0, len(images))
	emitted := make([]bool, len(images))

	for len(result) < len(images) {
		next := -1
		for i := range images {
			if !emitted[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			break
		}

		emitted[next] = true
		result = append(result, images[next])
		for _, d := range dependents[images[next].Service] {
			inDegree[d]--
		}
	}

	// Cycle: fall back to declaration order for the rest
	for i, img := range images {
		if !emitted[i] {
			result = append(result, img)
		}
	}

	return result
}
