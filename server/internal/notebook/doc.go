// Package notebook is the reactive core: it owns the generated dataset and the
// slider template and recomputes the derived outputs for a threshold.
//
//	dataset ──┐
//	          ├─> Filter ──> Summarize ──> Markdown
//	slider ───┘         └─> scatter plot (rendered on demand by package chart)
//
// View(threshold) is a pure function of the current dataset. Regenerate swaps
// the dataset atomically and notifies listeners registered with OnRegenerate.
package notebook
