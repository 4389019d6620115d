// Package guard detects values that bypassed their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes no error of its own.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in commands, queries and value objects whose zero
// value is not meaningful. Only the constructor sets the flag, so Validate fails
// for a struct literal such as commands.SubmitOptimizationCommand{}.
//
// Example:
//
//	var ErrQueryIsNotConstructed = errors.New("GetOptimizationQuery must be created via NewGetOptimizationQuery")
//
//	type GetOptimizationQuery struct {
//	    problemID kernel.UUID
//	    guard     guard.ConstructorGuard
//	}
//
//	func (q GetOptimizationQuery) Validate() error {
//	    return q.guard.Validate(ErrQueryIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// unless the guard came from NewConstructorGuard.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
