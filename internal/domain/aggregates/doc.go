// Package aggregates defines the coded error type shared by the progression
// store and its callers.
package aggregates
