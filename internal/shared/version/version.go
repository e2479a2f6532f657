// Package version holds the tool version stamped into generated documents.
package version

const Version = "1.0.0"
