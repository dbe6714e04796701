package race

import (
	"sort"

	"github.com/livetiming/race-hub/internal/domain/athlete"
)

// Partition is the composite grouping key of a start list.
type Partition struct {
	Gender   athlete.Gender
	Category athlete.Category
}

// Less orders partitions the way a race day runs: youngest category first,
// and within a category the female partition before the male one.
func (p Partition) Less(other Partition) bool {
	if p.Category != other.Category {
		return p.Category < other.Category
	}
	return p.Gender.Order() < other.Gender.Order()
}

// String returns e.g. "U10/FEMALE".
func (p Partition) String() string {
	return p.Category.String() + "/" + p.Gender.String()
}

type member struct {
	competitor *Competitor
	partition  Partition
	seq        uint64 // insertion order, breaks every remaining tie
}

// CompetitorList groups competitors by (gender, category). It holds a
// registry of competitors by ID and, per partition, the member IDs in
// insertion order. A competitor is in exactly one partition.
//
// The list owns the partition structure, not the competitors: they are
// shared with callers and mutated in place.
type CompetitorList struct {
	members    map[string]*member
	partitions map[Partition][]string
	nextSeq    uint64
}

// NewCompetitorList creates a list holding competitors.
func NewCompetitorList(competitors ...*Competitor) *CompetitorList {
	l := &CompetitorList{
		members:    make(map[string]*member),
		partitions: make(map[Partition][]string),
	}
	for _, c := range competitors {
		l.Add(c)
	}
	return l
}

// Add inserts c into the partition of its gender and category, creating the
// partition if needed. Adding a competitor already in the list is a no-op.
func (l *CompetitorList) Add(c *Competitor) {
	if c == nil {
		return
	}
	if _, ok := l.members[c.ID()]; ok {
		return
	}

	p := c.Partition()
	l.members[c.ID()] = &member{competitor: c, partition: p, seq: l.nextSeq}
	l.nextSeq++
	l.partitions[p] = append(l.partitions[p], c.ID())
}

// Remove takes c out of its partition and drops the partition once empty.
// It reports whether c was in the list.
func (l *CompetitorList) Remove(c *Competitor) bool {
	if c == nil {
		return false
	}
	m, ok := l.members[c.ID()]
	if !ok {
		return false
	}

	delete(l.members, c.ID())
	l.detach(m.partition, c.ID())
	return true
}

func (l *CompetitorList) detach(p Partition, id string) {
	ids := l.partitions[p]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(l.partitions, p)
		return
	}
	l.partitions[p] = ids
}

// Reassign moves c to category cat, keeping partition membership consistent.
// Competitors not in the list are updated in place only.
func (l *CompetitorList) Reassign(c *Competitor, cat athlete.Category) {
	m, ok := l.members[c.ID()]
	if !ok {
		c.setCategory(cat)
		return
	}

	l.detach(m.partition, c.ID())
	c.setCategory(cat)
	m.partition = c.Partition()
	// Keep the original seq: moving category does not change entry order.
	ids := append(l.partitions[m.partition], c.ID())
	sort.SliceStable(ids, func(i, j int) bool {
		return l.members[ids[i]].seq < l.members[ids[j]].seq
	})
	l.partitions[m.partition] = ids
}

// Get returns the competitor with the given ID.
func (l *CompetitorList) Get(id string) (*Competitor, bool) {
	m, ok := l.members[id]
	if !ok {
		return nil, false
	}
	return m.competitor, true
}

// Contains reports whether c is in the list.
func (l *CompetitorList) Contains(c *Competitor) bool {
	if c == nil {
		return false
	}
	_, ok := l.members[c.ID()]
	return ok
}

// Count returns the number of competitors in the list.
func (l *CompetitorList) Count() int {
	return len(l.members)
}

// Partitions returns the non-empty partitions in race-day order.
func (l *CompetitorList) Partitions() []Partition {
	keys := make([]Partition, 0, len(l.partitions))
	for p := range l.partitions {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
	return keys
}

// inEntryOrder returns a partition's competitors in insertion order.
func (l *CompetitorList) inEntryOrder(p Partition) []*Competitor {
	ids := l.partitions[p]
	out := make([]*Competitor, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.members[id].competitor)
	}
	return out
}

// inStartOrder returns a partition's competitors by ascending start number,
// unnumbered competitors last, insertion order breaking ties.
func (l *CompetitorList) inStartOrder(p Partition) []*Competitor {
	out := l.inEntryOrder(p)
	sort.SliceStable(out, func(i, j int) bool {
		return startNumberKey(out[i]) < startNumberKey(out[j])
	})
	return out
}

func startNumberKey(c *Competitor) int {
	if c.StartNumber() == 0 {
		return int(^uint(0) >> 1)
	}
	return c.StartNumber()
}

// All returns every competitor: categories youngest first, female before
// male within a category, then by start number.
func (l *CompetitorList) All() []*Competitor {
	out := make([]*Competitor, 0, len(l.members))
	for _, p := range l.Partitions() {
		out = append(out, l.inStartOrder(p)...)
	}
	return out
}

// EntryOrder returns every competitor in the order they were added.
func (l *CompetitorList) EntryOrder() []*Competitor {
	ms := make([]*member, 0, len(l.members))
	for _, m := range l.members {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].seq < ms[j].seq })

	out := make([]*Competitor, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.competitor)
	}
	return out
}

func (l *CompetitorList) filter(keep func(*Competitor) bool) []*Competitor {
	out := make([]*Competitor, 0)
	for _, c := range l.All() {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// ByCategory returns the competitors of one category, both genders.
func (l *CompetitorList) ByCategory(cat athlete.Category) []*Competitor {
	return l.filter(func(c *Competitor) bool { return c.Category() == cat })
}

// ByGender returns the competitors of one gender, all categories.
func (l *CompetitorList) ByGender(g athlete.Gender) []*Competitor {
	return l.filter(func(c *Competitor) bool { return c.Gender() == g })
}

// ByStatus returns the competitors currently in status s.
func (l *CompetitorList) ByStatus(s Status) []*Competitor {
	return l.filter(func(c *Competitor) bool { return c.Status() == s })
}

// ByPartition returns a single partition in start order.
func (l *CompetitorList) ByPartition(g athlete.Gender, cat athlete.Category) []*Competitor {
	p := Partition{Gender: g, Category: cat}
	if _, ok := l.partitions[p]; !ok {
		return []*Competitor{}
	}
	return l.inStartOrder(p)
}

// OnCourse returns the ON_COURSE competitors, earliest start first. The head
// of this slice is the next competitor expected at the finish. Equal start
// times fall back to start number, then entry order.
func (l *CompetitorList) OnCourse() []*Competitor {
	out := make([]*Competitor, 0)
	for _, m := range l.members {
		if m.competitor.Status() == StatusOnCourse {
			out = append(out, m.competitor)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StartTime() != b.StartTime() {
			return a.StartTime() < b.StartTime()
		}
		if startNumberKey(a) != startNumberKey(b) {
			return startNumberKey(a) < startNumberKey(b)
		}
		return l.members[a.ID()].seq < l.members[b.ID()].seq
	})
	return out
}

// ResetStatus puts every competitor back to NOT_STARTED with no finish time.
// Start times and start numbers are left alone.
func (l *CompetitorList) ResetStatus() {
	for _, m := range l.members {
		m.competitor.SetStatus(StatusNotStarted)
		m.competitor.SetFinishTime(0)
	}
}

// AssignStartNumbersByCategory numbers the whole list 1..N: categories
// youngest first, the female partition of a category before the male one,
// entry order within a partition.
func (l *CompetitorList) AssignStartNumbersByCategory() {
	n := 1
	for _, p := range l.Partitions() {
		for _, c := range l.inEntryOrder(p) {
			c.SetStartNumber(n)
			n++
		}
	}
}

// Next returns the competitor due at the start: the first NOT_STARTED one in
// race-day partition order and start-number order. ok is false when nobody
// is waiting.
func (l *CompetitorList) Next() (c *Competitor, ok bool) {
	for _, p := range l.Partitions() {
		for _, c := range l.inStartOrder(p) {
			if c.Status() == StatusNotStarted {
				return c, true
			}
		}
	}
	return nil, false
}
