// Package report renders a summary as the "Data Analysis Results" markdown
// block and converts markdown to HTML with goldmark.
package report
