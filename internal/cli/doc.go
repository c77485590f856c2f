// Package cli is the interactive terminal front end of maintlog.
//
// The REPL reads one command per line and dispatches to App. While the
// logbook is locked only unlock, help and exit are accepted.
//
//	unlock | lock | pin                      PIN lock
//	add | edit <id> | list [q] | show <id> | delete <id>
//	month [YYYY-MM] | year [YYYY]            summaries
//	shift start|stop | visit start|stop | steps <n> | steps feed <file>
//	preventive | done                        annual preventive maintenance
//	machines | setmachines | names           settings
//	export <file> | import <file> | wipe
//	help | exit
package cli
