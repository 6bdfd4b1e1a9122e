// Package errors provides application error types for DecisionTrace X-Ray.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for common error types
//   - Error type checking helpers
//   - HTTP status code mapping
//
// # Error Types
//
//   - NotFound: Resource does not exist (404)
//   - Validation: Invalid input data (400)
//   - Storage: Persistence medium unreachable or write rejected (500)
//   - Internal: Unexpected server error (500)
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.NotFound("trace")
//	return apperrors.Storage("database unreachable")
//
// Check error types:
//
//	if apperrors.IsNotFound(err) {
//	    // Handle absence, not a failure
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("query failed: %w", apperrors.Storage("write rejected"))
package errors
