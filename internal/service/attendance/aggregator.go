package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
)

// maxInterval discards entrada/saida pairs that would span a whole day or more.
const maxInterval = 24 * time.Hour

// dayStart truncates t to local midnight in loc.
func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// AggregateByDay groups punches by local calendar day and computes each day's
// statistics. The result is sorted by date.
func AggregateByDay(punches []punch.Punch, loc *time.Location) []attendance.DayStatistics {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[time.Time][]punch.Punch)
	for _, p := range punches {
		day := dayStart(p.Timestamp, loc)
		byDay[day] = append(byDay[day], p)
	}

	days := make([]attendance.DayStatistics, 0, len(byDay))
	for day, dayPunches := range byDay {
		days = append(days, aggregateDay(day, dayPunches, loc))
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

func aggregateDay(day time.Time, dayPunches []punch.Punch, loc *time.Location) attendance.DayStatistics {
	sorted := sortedCopy(dayPunches)

	stats := attendance.DayStatistics{
		Date:       day,
		PunchCount: len(sorted),
		Worked:     WorkedDuration(sorted),
	}
	if len(sorted) == 0 {
		return stats
	}

	stats.UserID = sorted[0].UserID
	first := sorted[0].Timestamp.In(loc)
	last := sorted[len(sorted)-1].Timestamp.In(loc)
	stats.FirstPunch = &first
	stats.LastPunch = &last

	sites := make(map[string]struct{})
	for _, p := range sorted {
		if p.Confirmed {
			stats.ConfirmedCount++
		}
		if p.WorkSiteID != "" {
			sites[p.WorkSiteID] = struct{}{}
		}
	}
	for site := range sites {
		stats.WorkSites = append(stats.WorkSites, site)
	}
	sort.Strings(stats.WorkSites)

	return stats
}

// WorkedDuration scans one day's punches in timestamp order. An entrada opens
// an interval (replacing any unmatched one), a saida closes the open interval.
// Intervals outside (0, 24h) are ignored. pausa/retorno do not affect the sum.
func WorkedDuration(dayPunches []punch.Punch) time.Duration {
	sorted := sortedCopy(dayPunches)

	var (
		total time.Duration
		open  *time.Time
	)
	for i := range sorted {
		p := sorted[i]
		switch p.Type {
		case punch.TypeEntrada:
			ts := p.Timestamp
			open = &ts
		case punch.TypeSaida:
			if open == nil {
				continue
			}
			d := p.Timestamp.Sub(*open)
			if d > 0 && d < maxInterval {
				total += d
			}
			open = nil
		}
	}
	return total
}

func sortedCopy(punches []punch.Punch) []punch.Punch {
	sorted := make([]punch.Punch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
