package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/application/command"
	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/infrastructure/i18n"
	"github.com/livetiming/race-hub/internal/infrastructure/persistence/memory"
	"github.com/livetiming/race-hub/pkg/logger"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

var raceDay = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	console *Console
	svc     *command.RaceService
	clock   *timeutil.ManualClock
	out     *bytes.Buffer
}

func newFixture(t *testing.T, locale string) *fixture {
	t.Helper()
	f := &fixture{clock: timeutil.NewManualClock(raceDay), out: &bytes.Buffer{}}
	f.svc = command.NewRaceService(memory.NewRaceRepository(), nil, nil, command.RaceServiceConfig{
		Clock:  f.clock,
		Logger: logger.Discard(),
	})
	f.console = New(f.svc, i18n.NewTranslator(locale, logger.Discard()), f.out, Config{Logger: logger.Discard()})
	return f
}

func (f *fixture) createRace(t *testing.T) {
	t.Helper()
	classifier := athlete.NewAgeClassifier(f.clock, time.UTC)
	_, err := f.svc.CreateRace(context.Background(), command.CreateRaceCommand{
		Name: "Club Sprint",
		Athletes: []athlete.Athlete{
			athlete.MustNew(athlete.Profile{FirstName: "Tom", LastName: "Berg", BirthYear: 2017, Gender: athlete.GenderMale}, classifier),
			athlete.MustNew(athlete.Profile{FirstName: "Ada", LastName: "Lind", BirthYear: 2017, Gender: athlete.GenderFemale}, classifier),
			athlete.MustNew(athlete.Profile{FirstName: "Max", LastName: "Ek", BirthYear: 1990, Gender: athlete.GenderMale}, classifier),
		},
	})
	require.NoError(t, err)
}

// exec runs one line and returns what it printed.
func (f *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	assert.False(t, f.console.Execute(context.Background(), line))
	return f.out.String()
}

func TestNoRaceLoaded(t *testing.T) {
	f := newFixture(t, "en")
	assert.Equal(t, "No race is loaded.\n", f.exec(t, "start"))
	assert.Equal(t, "No race is loaded.\n", f.exec(t, "list"))
}

func TestRaceDayCommands(t *testing.T) {
	f := newFixture(t, "en")
	f.createRace(t)

	out := f.exec(t, "start")
	assert.Equal(t, "#1 Ada Lind (U10 female) started.\nNext to start: #2 Tom Berg.\n", out)

	f.clock.Advance(30 * time.Second)
	f.exec(t, "s")

	out = f.exec(t, "oncourse")
	assert.Contains(t, out, "2 competitors on course:")
	assert.Contains(t, out, "30 seconds")
	assert.Contains(t, out, "10:00:00.000")

	f.clock.Advance(90 * time.Second)
	out = f.exec(t, "finish")
	assert.Contains(t, out, "#1 Ada Lind finished in 2:00.000.")

	out = f.exec(t, "dnf")
	assert.Contains(t, out, "#2 Tom Berg did not finish.")

	assert.Equal(t, "No one is on course.\n", f.exec(t, "finish"))
	assert.Equal(t, "No one is on course.\n", f.exec(t, "DNF"))

	f.exec(t, "start")
	out = f.exec(t, "finish")
	assert.Contains(t, out, "All competitors are in.")

	assert.Equal(t, "Everyone has already started.\n", f.exec(t, "start"))

	out = f.exec(t, "results")
	assert.Contains(t, out, "U10 FEMALE")
	assert.Contains(t, out, "1st")
	assert.Contains(t, out, "DNF")
	assert.Contains(t, out, "Tom Berg")
}

func TestFinishAtGivenTime(t *testing.T) {
	f := newFixture(t, "en")
	f.createRace(t)
	f.exec(t, "start")

	out := f.exec(t, "finish 1771063265250")
	assert.Contains(t, out, "finished in 1:05.250.")

	assert.Equal(t, "\"soon\" is not a finish time in milliseconds.\n", f.exec(t, "finish soon"))
}

func TestFinishBeforeStartIsRefused(t *testing.T) {
	f := newFixture(t, "en")
	f.createRace(t)
	f.exec(t, "start")

	assert.Equal(t, "That finish time is earlier than the start. Nothing was recorded.\n", f.exec(t, "finish 500"))

	out := f.exec(t, "oncourse")
	assert.Contains(t, out, "1 competitor on course:")
	assert.Contains(t, out, "Ada Lind")
	assert.Equal(t, "Nothing to show.\n", f.exec(t, "results"))

	f.clock.Advance(time.Minute)
	assert.Contains(t, f.exec(t, "finish"), "#1 Ada Lind finished in 1:00.000.")
}

func TestUnknownCommandAndHelp(t *testing.T) {
	f := newFixture(t, "en")

	assert.Equal(t, "Unknown command \"jump\". Type help.\n", f.exec(t, "jump"))
	assert.Contains(t, f.exec(t, "help"), "finish [ms]")
	assert.Empty(t, f.exec(t, "   "))
}

func TestFrenchMessages(t *testing.T) {
	f := newFixture(t, "fr")
	f.createRace(t)

	assert.Equal(t, "Personne n'est en course.\n", f.exec(t, "finish"))
}

func TestListShowsStartOrder(t *testing.T) {
	f := newFixture(t, "en")
	f.createRace(t)

	out := f.exec(t, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Club Sprint", lines[0])
	assert.Contains(t, lines[1], "Ada Lind")
	assert.Contains(t, lines[2], "Tom Berg")
	assert.Contains(t, lines[3], "Max Ek")
	assert.Equal(t, "Next to start: #1 Ada Lind.", lines[4])
}

func TestRunUntilQuit(t *testing.T) {
	f := newFixture(t, "en")
	f.createRace(t)

	err := f.console.Run(context.Background(), strings.NewReader("start\nquit\nstart\n"))
	require.NoError(t, err)

	out := f.out.String()
	assert.Equal(t, 1, strings.Count(out, "started."))
	assert.True(t, strings.HasSuffix(out, "Bye.\n"))
}

func TestRunEndsAtEOF(t *testing.T) {
	f := newFixture(t, "en")
	require.NoError(t, f.console.Run(context.Background(), strings.NewReader("help\n")))
	assert.Contains(t, f.out.String(), "Commands:")
}
