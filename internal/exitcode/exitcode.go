// Package exitcode holds the process exit statuses of the todo CLI.
package exitcode

const (
	Success = 0

	// UserError covers bad arguments, validation failures and unknown or
	// ambiguous task references.
	UserError = 1

	// AuthError means there is no usable session; the message points at
	// `todo login`.
	AuthError = 2

	// BackendError covers network failures and unexpected server errors.
	BackendError = 3
)
