package race

import (
	"sort"
	"time"
)

// Standing is one line of a result list.
type Standing struct {
	Rank       int // 0 for competitors without a time
	Competitor *Competitor
	Elapsed    time.Duration
	Gap        time.Duration // behind the partition leader
}

// PartitionStandings is the result list of one gender × category partition.
type PartitionStandings struct {
	Partition Partition
	Finishers []Standing
	DNF       []Standing
}

// Standings ranks finished competitors per partition by elapsed time.
// Equal times share a rank and the next rank skips accordingly (1, 1, 3).
// Finishers whose finish precedes their start follow the ranked ones with
// rank 0. Competitors that did not finish are listed apart, also unranked.
// Partitions with no finisher and no DNF are left out.
func Standings(list *CompetitorList) []PartitionStandings {
	out := make([]PartitionStandings, 0)

	for _, p := range list.Partitions() {
		ps := PartitionStandings{Partition: p}
		var untimed []Standing

		// start order first, so equal times stay in bib order after the stable sort
		for _, c := range list.inStartOrder(p) {
			switch {
			case c.Timed():
				ps.Finishers = append(ps.Finishers, Standing{Competitor: c, Elapsed: c.Elapsed()})
			case c.Status() == StatusFinished:
				untimed = append(untimed, Standing{Competitor: c})
			case c.Status() == StatusDidNotFinish:
				ps.DNF = append(ps.DNF, Standing{Competitor: c})
			}
		}
		if len(ps.Finishers) == 0 && len(untimed) == 0 && len(ps.DNF) == 0 {
			continue
		}

		sort.SliceStable(ps.Finishers, func(i, j int) bool {
			return ps.Finishers[i].Elapsed < ps.Finishers[j].Elapsed
		})
		for i := range ps.Finishers {
			if i > 0 && ps.Finishers[i].Elapsed == ps.Finishers[i-1].Elapsed {
				ps.Finishers[i].Rank = ps.Finishers[i-1].Rank
			} else {
				ps.Finishers[i].Rank = i + 1
			}
			ps.Finishers[i].Gap = ps.Finishers[i].Elapsed - ps.Finishers[0].Elapsed
		}
		ps.Finishers = append(ps.Finishers, untimed...)

		out = append(out, ps)
	}

	return out
}
