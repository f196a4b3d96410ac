// Package strata holds release metadata for the strata pipeline.
package strata

// Version is the strata release version.
const Version = "0.1.0"

// ModulePath is the Go module path of strata.
const ModulePath = "github.com/mesh-intelligence/strata"
