// Package models holds the typed logbook records: entries, shifts, visits
// and service records. Each record validates itself before it reaches the
// schema-agnostic store.
package models
