// Package ui serves the single-page browser view: the threshold slider, the
// rendered summary, the scatter plot and the About footer.
//
// The first render happens on the server so the page is complete without
// JavaScript. The embedded script then opens /ws/stream for the page's session,
// sends {"event":"slider"} on every slider change and re-renders from each
// pushed view.
//
// Each visit mints a fresh viewer session unless ?session= names one that
// already exists.
package ui
