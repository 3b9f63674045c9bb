// Package aggregates owns transaction boundaries for multi-row progression
// writes and maps driver failures onto store error codes.
package aggregates
