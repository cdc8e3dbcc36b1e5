// Package dataset generates the synthetic research dataset: temperature drawn
// uniformly, humidity falling linearly with temperature, and growth rate rising
// with temperature and falling with humidity, each with Gaussian noise.
//
// Generate(params) is deterministic for a given Params.Seed. Columns are drawn
// in order (all temperatures, then humidity noise, then growth noise) from one
// PCG stream.
package dataset
