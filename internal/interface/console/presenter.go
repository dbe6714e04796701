package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hako/durafmt"

	"github.com/livetiming/race-hub/internal/application/command"
	"github.com/livetiming/race-hub/internal/application/query"
	"github.com/livetiming/race-hub/internal/infrastructure/i18n"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// FormatRunning renders a running time to the second, e.g. "2 minutes 5 seconds".
func FormatRunning(d time.Duration) string {
	return durafmt.Parse(d.Truncate(time.Second)).String()
}

// Presenter turns query and command results into console text.
type Presenter struct {
	tr   *i18n.Translator
	warn *color.Color
	fail *color.Color
	head *color.Color
	loc  *time.Location
}

// NewPresenter creates a Presenter showing clock times in loc (UTC when nil).
// With colors off every line is plain text.
func NewPresenter(tr *i18n.Translator, colors bool, loc *time.Location) *Presenter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &Presenter{
		tr:   tr,
		warn: mk(color.FgYellow),
		fail: mk(color.FgRed, color.Bold),
		head: mk(color.Bold),
		loc:  loc,
	}
}

// Message renders a plain translated line.
func (p *Presenter) Message(w io.Writer, key string, data map[string]any) {
	fmt.Fprintln(w, p.tr.T(key, data))
}

// Failure renders a translated line in the failure style.
func (p *Presenter) Failure(w io.Writer, key string, data map[string]any) {
	fmt.Fprintln(w, p.fail.Sprint(p.tr.T(key, data)))
}

// CompetitorResult renders the outcome of start, finish or dnf.
func (p *Presenter) CompetitorResult(w io.Writer, key string, res *command.CompetitorResult) {
	c := res.Competitor
	p.Message(w, key, map[string]any{
		"Number":    c.StartNumber,
		"Name":      res.Name,
		"Partition": fmt.Sprintf("%s %s", c.Category, strings.ToLower(c.Athlete.Gender.String())),
		"Elapsed":   timeutil.FormatRaceTime(res.Elapsed),
	})
	if !res.Stored {
		fmt.Fprintln(w, p.warn.Sprint(p.tr.T("not_stored", nil)))
	}
	if !res.BoardUpdated {
		fmt.Fprintln(w, p.warn.Sprint(p.tr.T("board_stale", nil)))
	}
}

// StartList renders the start list.
func (p *Presenter) StartList(w io.Writer, res *query.StartListResult) {
	fmt.Fprintln(w, p.head.Sprint(res.RaceName))
	if len(res.Competitors) == 0 {
		p.Message(w, "empty_list", nil)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range res.Competitors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.StartNumber, c.Name, c.Club, c.Category, c.Gender, c.Status)
	}
	_ = tw.Flush()

	if res.Next != nil {
		p.Message(w, "next_up", map[string]any{"Number": res.Next.StartNumber, "Name": res.Next.Name})
	} else if res.Finished {
		p.Message(w, "race_complete", nil)
	}
}

// OnCourse renders the competitors on course, next expected finisher first.
func (p *Presenter) OnCourse(w io.Writer, res *query.OnCourseResult) {
	if len(res.Entries) == 0 {
		p.Message(w, "no_one_on_course", nil)
		return
	}

	fmt.Fprintln(w, p.head.Sprint(p.tr.N("on_course_header", len(res.Entries), nil)))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range res.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.StartNumber, e.Name, e.Category,
			timeutil.FormatMillis(e.StartTime, p.loc), FormatRunning(e.Running))
	}
	_ = tw.Flush()
}

// Standings renders ranked results per partition.
func (p *Presenter) Standings(w io.Writer, res *query.StandingsResult) {
	if len(res.Partitions) == 0 {
		p.Message(w, "empty_list", nil)
		return
	}

	for i, ps := range res.Partitions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, p.head.Sprintf("%s %s", ps.Category, ps.Gender))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, s := range ps.Finishers {
			gap := ""
			if s.Gap > 0 {
				gap = "+" + timeutil.FormatRaceTime(s.Gap)
			}
			rank := "-"
			if s.Rank > 0 {
				rank = humanize.Ordinal(s.Rank)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
				rank, s.StartNumber, s.Name, timeutil.FormatRaceTime(s.Elapsed), gap)
		}
		for _, s := range ps.DNF {
			fmt.Fprintf(tw, "DNF\t%d\t%s\t\t\n", s.StartNumber, s.Name)
		}
		_ = tw.Flush()
	}
}
