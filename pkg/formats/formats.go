// Package formats provides parsers for the model file formats that back
// drawable condition states.
package formats

// Note: RSM (Resource Model) parsing and writing live in rsm.go and rsm_write.go.
