// Package kernel holds the value objects shared by every aggregate of the
// optimization domain.
//
// The package includes:
//   - UUID: identifier of optimization problems, validated on construction
//   - Location: a named point on the Earth's surface with great-circle distance
//   - BoundingBox: the smallest lat/lng rectangle covering a set of locations
//
// All values are immutable and safe for concurrent use. Zero values are
// invalid and fail Validate; use the constructors.
package kernel
