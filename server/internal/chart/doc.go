// Package chart draws the temperature vs growth rate scatter plot with gonum/plot.
//
// Points are coloured by humidity through the extended Kindlmann colour map and
// a vertical colour bar is drawn to the right of the scatter. Render writes the
// figure as SVG or PNG.
package chart
