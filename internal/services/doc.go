// Package services is the application layer of maintlog: saving and
// searching logbook entries, monthly and yearly summaries, preventive
// maintenance tracking, settings, the PIN lock and backups. Services talk
// to the record store only through internal/repositories.
package services
