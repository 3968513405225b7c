// Package errors provides the structured error type used for failures that
// happen on the client side of an exchange: bad adapter configuration,
// unresolvable content types, malformed request templates and payloads that
// cannot be decoded.
//
// HTTP failure statuses are not represented here; those surface as
// abstractions.ApiError values or the error models registered in an
// abstractions.ErrorMappings table.
package errors
