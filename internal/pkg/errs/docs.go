// Package errs provides the error types shared by the pipeline's packages.
//
// Every error type follows the same shape:
//   - a sentinel error variable (e.g. ErrObjectNotFound) for errors.Is checks
//   - a struct carrying ParamName (or Service) and an optional Cause
//   - constructors with and without a cause
//   - Unwrap() returning the sentinel
//
// The HTTP adapter classifies responses by sentinel only:
//   - ErrValueIsInvalid, ErrValueIsRequired, ErrValueIsOutOfRange: bad request
//   - ErrObjectNotFound: not found
//   - ErrObjectAlreadyExists: conflict
//   - ErrUpstreamUnavailable: bad gateway
package errs
