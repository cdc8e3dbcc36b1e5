// Package control implements the temperature-threshold slider: a bounded,
// stepped numeric control whose value drives the filter.
//
// Set(v) rejects non-finite values and values outside [Start, Stop] and snaps
// accepted values to the nearest step counted from Start.
package control
