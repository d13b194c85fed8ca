package reminder

import (
	"time"

	"github.com/google/uuid"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/report"
)

type barangayGroup struct {
	ID          uuid.UUID
	Name        string
	Submissions []*report.Submission
}

// groupByBarangay partitions submissions by barangay. Groups keep the order
// in which their barangay first appears and rows keep input order.
func groupByBarangay(subs []*report.Submission) []*barangayGroup {
	index := make(map[uuid.UUID]*barangayGroup)
	var groups []*barangayGroup
	for _, s := range subs {
		g, ok := index[s.BarangayID]
		if !ok {
			g = &barangayGroup{ID: s.BarangayID, Name: s.BarangayName}
			index[s.BarangayID] = g
			groups = append(groups, g)
		}
		g.Submissions = append(g.Submissions, s)
	}
	return groups
}

// DaysLeft is the signed number of calendar days from today to due, with
// due read as a calendar date in loc. today is already a calendar date.
// Negative means overdue.
func DaysLeft(due, today time.Time, loc *time.Location) int {
	d := CivilDate(due, loc)
	t := CivilDate(today, today.Location())
	return int(d.Sub(t).Hours() / 24)
}

// Due reports whether a submission with daysLeft gets a reminder: on the
// 7, 3 and 1 day checkpoints, and on every day once overdue. The due date
// itself is skipped.
func Due(daysLeft int) bool {
	switch {
	case daysLeft < 0:
		return true
	case daysLeft == 7, daysLeft == 3, daysLeft == 1:
		return true
	default:
		return false
	}
}

type factKey struct {
	period string
	due    time.Time
}

// selectFacts applies the checkpoint rule to a group and collapses rows
// sharing a (period, due date) pair. The first row seen represents them.
func selectFacts(g *barangayGroup, today time.Time, loc *time.Location) []Fact {
	seen := make(map[factKey]bool)
	var facts []Fact
	for _, s := range g.Submissions {
		left := DaysLeft(s.DueAt, today, loc)
		if !Due(left) {
			continue
		}
		key := factKey{period: s.ReportPeriod, due: CivilDate(s.DueAt, loc)}
		if seen[key] {
			continue
		}
		seen[key] = true
		facts = append(facts, Fact{
			BarangayName: g.Name,
			ReportPeriod: s.ReportPeriod,
			DueDate:      key.due,
			DaysLeft:     left,
		})
	}
	return facts
}
