// Package console is the race-day operator console: one command per line,
// one competitor moved per command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/livetiming/race-hub/internal/application/command"
	"github.com/livetiming/race-hub/internal/application/query"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/internal/infrastructure/i18n"
	"github.com/livetiming/race-hub/pkg/logger"
)

// Service is what the console drives.
type Service interface {
	query.RaceReader
	StartNext(ctx context.Context) (*command.CompetitorResult, error)
	FinishNext(ctx context.Context, cmd command.FinishNextCommand) (*command.CompetitorResult, error)
	DidNotFinishNext(ctx context.Context) (*command.CompetitorResult, error)
}

// Config configures the console.
type Config struct {
	Prompt string
	Colors bool
	// Location is the race-day time zone for start times.
	Location *time.Location
	Logger   *logger.Logger
}

// errQuit ends the command loop.
var errQuit = errors.New("quit")

type handlerFunc func(ctx context.Context, args []string) error

// Console reads operator commands and prints their outcome.
type Console struct {
	svc       Service
	startList *query.StartListHandler
	onCourse  *query.OnCourseHandler
	standings *query.StandingsHandler
	presenter *Presenter
	out       io.Writer
	prompt    string
	logger    *logger.Logger
	commands  map[string]handlerFunc
}

// New creates a Console writing to out.
func New(svc Service, tr *i18n.Translator, out io.Writer, cfg Config) *Console {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}

	c := &Console{
		svc:       svc,
		startList: query.NewStartListHandler(svc),
		onCourse:  query.NewOnCourseHandler(svc),
		standings: query.NewStandingsHandler(svc),
		presenter: NewPresenter(tr, cfg.Colors, cfg.Location),
		out:       out,
		prompt:    cfg.Prompt,
		logger:    cfg.Logger.With(logger.Component("console")),
	}

	c.commands = map[string]handlerFunc{}
	c.register(c.handleStart, "start", "s")
	c.register(c.handleFinish, "finish", "f")
	c.register(c.handleDidNotFinish, "dnf", "d")
	c.register(c.handleList, "list", "l")
	c.register(c.handleOnCourse, "oncourse", "o")
	c.register(c.handleResults, "results", "r")
	c.register(c.handleHelp, "help", "h", "?")
	c.register(func(context.Context, []string) error { return errQuit }, "quit", "q", "exit")

	return c
}

func (c *Console) register(h handlerFunc, names ...string) {
	for _, n := range names {
		c.commands[n] = h
	}
}

// Run reads commands from in until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, c.prompt)

		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			c.presenter.Message(c.out, "bye", nil)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if c.Execute(ctx, line) {
				c.presenter.Message(c.out, "bye", nil)
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the operator
// asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	name := strings.ToLower(fields[0])
	h, ok := c.commands[name]
	if !ok {
		c.presenter.Failure(c.out, "unknown_command", map[string]any{"Command": fields[0]})
		return false
	}

	err := h(ctx, fields[1:])
	switch {
	case err == nil:
		return false
	case errors.Is(err, errQuit):
		return true
	default:
		c.reportError(name, err)
		return false
	}
}

// reportError maps race-day errors to operator messages. Anything else is
// unexpected and logged.
func (c *Console) reportError(name string, err error) {
	var badTime *badTimeError
	switch {
	case errors.Is(err, shared.ErrNoCompetitorsOnCourse):
		c.presenter.Failure(c.out, "no_one_on_course", nil)
	case errors.Is(err, shared.ErrNoPendingCompetitor):
		c.presenter.Failure(c.out, "no_one_waiting", nil)
	case errors.Is(err, shared.ErrFinishBeforeStart):
		c.presenter.Failure(c.out, "finish_before_start", nil)
	case errors.Is(err, command.ErrNoActiveRace):
		c.presenter.Failure(c.out, "no_active_race", nil)
	case errors.As(err, &badTime):
		c.presenter.Failure(c.out, "bad_time", map[string]any{"Value": badTime.value})
	default:
		c.logger.Error("command failed", logger.Operation(name), logger.Err(err))
		c.presenter.Failure(c.out, "error", map[string]any{"Error": err.Error()})
	}
}

type badTimeError struct {
	value string
}

func (e *badTimeError) Error() string {
	return fmt.Sprintf("bad finish time %q", e.value)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (c *Console) handleStart(ctx context.Context, _ []string) error {
	res, err := c.svc.StartNext(ctx)
	if err != nil {
		return err
	}
	c.presenter.CompetitorResult(c.out, "started", res)
	return c.showProgress(ctx)
}

func (c *Console) handleFinish(ctx context.Context, args []string) error {
	var cmd command.FinishNextCommand
	if len(args) > 0 {
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || ms <= 0 {
			return &badTimeError{value: args[0]}
		}
		cmd.FinishTime = ms
	}

	res, err := c.svc.FinishNext(ctx, cmd)
	if err != nil {
		return err
	}
	c.presenter.CompetitorResult(c.out, "finished", res)
	return c.showProgress(ctx)
}

func (c *Console) handleDidNotFinish(ctx context.Context, _ []string) error {
	res, err := c.svc.DidNotFinishNext(ctx)
	if err != nil {
		return err
	}
	c.presenter.CompetitorResult(c.out, "did_not_finish", res)
	return c.showProgress(ctx)
}

// showProgress tells the operator who is next, or that the race is over.
func (c *Console) showProgress(ctx context.Context) error {
	res, err := c.startList.Handle(ctx, query.StartListQuery{})
	if err != nil {
		return err
	}
	switch {
	case res.Next != nil:
		c.presenter.Message(c.out, "next_up", map[string]any{"Number": res.Next.StartNumber, "Name": res.Next.Name})
	case res.Finished:
		c.presenter.Message(c.out, "race_complete", nil)
	}
	return nil
}

func (c *Console) handleList(ctx context.Context, _ []string) error {
	res, err := c.startList.Handle(ctx, query.StartListQuery{})
	if err != nil {
		return err
	}
	c.presenter.StartList(c.out, res)
	return nil
}

func (c *Console) handleOnCourse(ctx context.Context, _ []string) error {
	res, err := c.onCourse.Handle(ctx)
	if err != nil {
		return err
	}
	c.presenter.OnCourse(c.out, res)
	return nil
}

func (c *Console) handleResults(ctx context.Context, _ []string) error {
	res, err := c.standings.Handle(ctx)
	if err != nil {
		return err
	}
	c.presenter.Standings(c.out, res)
	return nil
}

func (c *Console) handleHelp(context.Context, []string) error {
	c.presenter.Message(c.out, "help", nil)
	return nil
}
