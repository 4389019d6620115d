// Package optimization models the lifecycle of a submitted route-optimization
// problem.
//
// The package includes:
//   - Task: the aggregate root holding the payload, status and active flag
//   - Status: the forward-only state machine driven by lifecycle events
//   - EventType and LifecycleEvent: worker progress notifications with priorities
//   - Result: the immutable solver output written on completion
//   - Problem: the submitted payload and its validation rules
//
// Key business rules:
//   - A task starts SUBMITTED and active
//   - Events never regress a status; COMPLETED and ERROR are terminal
//   - ERROR outranks COMPLETED, which outranks IN_PROGRESS, which outranks METADATA_UPDATE
//   - A result exists exactly when the task is COMPLETED
package optimization
