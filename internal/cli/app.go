package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
	"github.com/dmitrijs2005/maintlog/internal/services"
	"github.com/dmitrijs2005/maintlog/internal/session"
)

// Services bundles what the App drives.
type Services struct {
	Entries    services.EntryService
	Summary    services.SummaryService
	Preventive services.PreventiveService
	Settings   services.SettingsService
	Lock       services.LockService
	Backup     services.BackupService
	Repos      *repositories.Set
}

type App struct {
	svc     Services
	session *session.Session
	reader  *bufio.Reader
	out     io.Writer
	log     logging.Logger
	now     func() time.Time
}

func NewApp(svc Services, sess *session.Session, in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{
		svc:     svc,
		session: sess,
		reader:  bufio.NewReader(in),
		out:     out,
		log:     log,
		now:     time.Now,
	}
}

// Run prepares the logbook and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) error {
	if seeded, err := a.svc.Settings.EnsureDefaultMachines(ctx); err != nil {
		return err
	} else if seeded {
		a.log.Info(ctx, "default machines seeded")
	}
	if err := a.session.Restore(ctx); err != nil {
		return err
	}

	a.printf("Welcome to maintlog (type 'help' for commands)\n")
	if !a.isUnlocked(ctx) {
		has, err := a.svc.Lock.HasPIN(ctx)
		if err != nil {
			return err
		}
		if has {
			a.printf("Logbook is locked. Type 'unlock'.\n")
		} else {
			a.printf("No PIN yet. Type 'unlock' and choose one (at least %d characters).\n", services.MinPINLength)
		}
	}
	runREPL(ctx, a, func() string { return a.status(ctx) }, a.reader)
	return nil
}

func (a *App) isUnlocked(ctx context.Context) bool {
	ok, err := a.svc.Lock.IsUnlocked(ctx)
	if err != nil {
		a.log.Error(ctx, "read lock state", "err", err)
		return false
	}
	return ok
}

func (a *App) status(ctx context.Context) string {
	if !a.isUnlocked(ctx) {
		return " (locked)"
	}
	sh := a.session.ActiveShift()
	if sh == nil {
		return ""
	}
	s := fmt.Sprintf(" (shift %s, %d steps", sh.StartAt.In(time.Local).Format("15:04"), a.session.Steps())
	if v := a.session.ActiveVisit(); v != nil {
		s += ", at " + v.Machine
	}
	return s + ")"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askDefault(prompt, def string) (string, error) {
	return GetWithDefault(a.reader, prompt, def, a.out)
}

// argOrAsk returns args[0] or prompts for it.
func (a *App) argOrAsk(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return a.ask(prompt)
}
