// Package domain contains the core entities of the analysis layer: analysis
// results, history entries, derived statistics and saved comparisons. The
// types are free of infrastructure concerns and carry the JSON shape used by
// the storage partitions and the HTTP API.
package domain
