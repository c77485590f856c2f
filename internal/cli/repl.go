package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives.
type execIface interface {
	isUnlocked(ctx context.Context) bool

	Unlock(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	SetPIN(ctx context.Context, args []string) error

	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error

	Month(ctx context.Context, args []string) error
	Year(ctx context.Context, args []string) error

	Shift(ctx context.Context, args []string) error
	Visit(ctx context.Context, args []string) error
	Steps(ctx context.Context, args []string) error

	Preventive(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error

	Machines(ctx context.Context, args []string) error
	SetMachines(ctx context.Context, args []string) error
	Names(ctx context.Context, args []string) error

	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Wipe(ctx context.Context, args []string) error
}

type handler func(a execIface, ctx context.Context, args []string) error

var commands = map[string]handler{
	"unlock":      execIface.Unlock,
	"lock":        execIface.Lock,
	"pin":         execIface.SetPIN,
	"add":         execIface.Add,
	"edit":        execIface.Edit,
	"list":        execIface.List,
	"l":           execIface.List,
	"show":        execIface.Show,
	"delete":      execIface.Delete,
	"month":       execIface.Month,
	"year":        execIface.Year,
	"shift":       execIface.Shift,
	"visit":       execIface.Visit,
	"steps":       execIface.Steps,
	"preventive":  execIface.Preventive,
	"done":        execIface.Done,
	"machines":    execIface.Machines,
	"setmachines": execIface.SetMachines,
	"names":       execIface.Names,
	"export":      execIface.Export,
	"import":      execIface.Import,
	"wipe":        execIface.Wipe,
}

const (
	helpLocked   = "Available commands: unlock, help, exit"
	helpUnlocked = "Available commands: add, edit <id>, (l)ist [q], show <id>, delete <id>, month [YYYY-MM], " +
		"year [YYYY], shift start|stop, visit start|stop, steps <n>|feed <file>, preventive, done, machines, setmachines, " +
		"names, pin, export <file>, import <file>, wipe, lock, exit"
)

// runREPL reads commands from reader until EOF or exit. Command errors are
// printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("maintlog%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]
		unlocked := a.isUnlocked(ctx)

		switch cmd {
		case "help":
			if unlocked {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		h, ok := commands[cmd]
		switch {
		case !ok:
			printlnFn("Unknown command:", cmd)
		case !unlocked && cmd != "unlock":
			printlnFn("Logbook is locked. Type 'unlock'.")
		default:
			if err := h(a, ctx, args); err != nil {
				printlnFn("Error:", err)
			}
		}
	}
}
