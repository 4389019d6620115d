// Package services provides domain services that do not belong to a single
// aggregate.
//
// The package includes:
//   - GreedySolver: assigns orders to the nearest vehicle that still has room
//   - PlanVehicleRoute / SplitPath: turn a vehicle's stops into routing calculator requests
//   - StepPolicy / CapacityBounds: map queue metrics to worker capacity changes
package services
