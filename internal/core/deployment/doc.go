// Package deployment provides pure functions for turning resolved image
// configurations into Docker Engine API container plans.
//
// All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - Naming: Generate consistent resource names (ContainerName, NetworkName)
//   - Ordering: Sort images by depends_on (StartOrder)
//   - Container: Build container plans from resolved images (BuildContainerPlan)
//
// # Usage
//
// The image build/run engine consumes the resolver output through these
// functions and executes the plans via the Docker API.
//
//	ordered := deployment.StartOrder(images)
//	plan, err := deployment.BuildContainerPlan(deployment.BuildContainerPlanParams{
//	    ProjectName: "demo",
//	    Image:       ordered[0],
//	})
package deployment
