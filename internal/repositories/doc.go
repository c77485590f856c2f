// Package repositories gives the application typed access to the record
// store: one generic Repository per record type, validating on write and
// decoding on read, and Settings for the well-known meta keys.
package repositories
