// Package render produces Mermaid flowcharts of session graphs and
// projections for inspection and documentation.
package render
