// Package types defines the shared Go types used by the server packages and
// the render CLI: the sample record and the summary derived from a filtered
// subset of samples.
package types
