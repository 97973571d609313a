// Package report formats analysis results: CSV and aligned tables for batch
// runs, an SVG strip of the projected markings, and an HTML reach chart.
package report
