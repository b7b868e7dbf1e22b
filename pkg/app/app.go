// Package app defines common runtime contracts shared by different
// executable entrypoints (e.g., the deployer and the migration runner).
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}
