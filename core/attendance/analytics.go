package attendance

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	Stats struct {
		Total       int     `json:"total"`
		Successful  int     `json:"successful"`
		Failed      int     `json:"failed"`
		SuccessRate float64 `json:"success_rate"` // percent
	}

	StudentStats struct {
		PRN                string    `json:"prn"`
		FullName           string    `json:"full_name"`
		TotalAttempts      int       `json:"total_attempts"`
		SuccessfulAttempts int       `json:"successful_attempts"`
		FailedAttempts     int       `json:"failed_attempts"`
		LastAttempt        time.Time `json:"last_attempt"`
		AttendanceRate     float64   `json:"attendance_rate"` // percent
	}

	DailyStats struct {
		Date               string `json:"date"` // YYYY-MM-DD, UTC
		TotalAttempts      int    `json:"total_attempts"`
		SuccessfulAttempts int    `json:"successful_attempts"`
		FailedAttempts     int    `json:"failed_attempts"`
		UniqueStudents     int    `json:"unique_students"`
	}

	MonthlyStats struct {
		Month      string `json:"month"` // YYYY-MM, UTC
		Total      int    `json:"total"`
		Successful int    `json:"successful"`
		Failed     int    `json:"failed"`
	}

	Summary struct {
		Stats
		Students    []StudentStats   `json:"students"`
		Days        []DailyStats     `json:"days"`
		SelectedDay *DailyStats      `json:"selected_day,omitempty"`
		DayAttempts []CheckInAttempt `json:"day_attempts,omitempty"`
	}

	StudentReport struct {
		PRN          string           `json:"prn"`
		FullName     string           `json:"full_name"`
		Stats        Stats            `json:"stats"`
		Monthly      []MonthlyStats   `json:"monthly"`
		FirstAttempt time.Time        `json:"first_attempt"`
		LastAttempt  time.Time        `json:"last_attempt"`
		Records      []CheckInAttempt `json:"records"`
	}
)

// ParseDay parses a YYYY-MM-DD day; the empty string is the zero time.
func ParseDay(s string) (time.Time, error) {
	s = core.CleanString(s)
	if s == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

// Summarize aggregates attempts overall, per student and per day.
// When day is set, the attempts of that day are included newest first.
func Summarize(attempts []CheckInAttempt, day time.Time) Summary {
	sum := Summary{
		Stats:    computeStats(attempts),
		Students: studentStats(attempts),
		Days:     dailyStats(attempts),
	}
	if !day.IsZero() {
		key := day.UTC().Format(dayLayout)
		dayAttempts := make([]CheckInAttempt, 0)
		for _, a := range attempts {
			if a.SubmittedAt.UTC().Format(dayLayout) == key {
				dayAttempts = append(dayAttempts, a)
			}
		}
		SortAttempts(dayAttempts, nil)
		sum.DayAttempts = dayAttempts

		selected := DailyStats{Date: key}
		for _, ds := range sum.Days {
			if ds.Date == key {
				selected = ds
				break
			}
		}
		sum.SelectedDay = &selected
	}
	return sum
}

// BuildStudentReport aggregates every attempt of prn; ErrNoAttempts if there is none.
func BuildStudentReport(prn string, attempts []CheckInAttempt) (StudentReport, error) {
	records := make([]CheckInAttempt, 0)
	for _, a := range attempts {
		if a.PRN == prn {
			records = append(records, a)
		}
	}
	if len(records) == 0 {
		return StudentReport{}, ErrNoAttempts
	}
	SortAttempts(records, nil)

	months := make(map[string]*MonthlyStats)
	for _, a := range records {
		key := a.SubmittedAt.UTC().Format(monthLayout)
		ms, ok := months[key]
		if !ok {
			ms = &MonthlyStats{Month: key}
			months[key] = ms
		}
		ms.Total++
		if a.Admitted {
			ms.Successful++
		} else {
			ms.Failed++
		}
	}
	monthly := make([]MonthlyStats, 0, len(months))
	for _, ms := range months {
		monthly = append(monthly, *ms)
	}
	sort.Slice(monthly, func(i, j int) bool { return monthly[i].Month > monthly[j].Month })

	return StudentReport{
		PRN:          prn,
		FullName:     records[0].FullName,
		Stats:        computeStats(records),
		Monthly:      monthly,
		FirstAttempt: records[len(records)-1].SubmittedAt,
		LastAttempt:  records[0].SubmittedAt,
		Records:      records,
	}, nil
}

func computeStats(attempts []CheckInAttempt) Stats {
	var st Stats
	for _, a := range attempts {
		st.Total++
		if a.Admitted {
			st.Successful++
		}
	}
	st.Failed = st.Total - st.Successful
	st.SuccessRate = percent(st.Successful, st.Total)
	return st
}

func studentStats(attempts []CheckInAttempt) []StudentStats {
	byPRN := make(map[string]*StudentStats)
	for _, a := range attempts {
		ss, ok := byPRN[a.PRN]
		if !ok {
			ss = &StudentStats{PRN: a.PRN}
			byPRN[a.PRN] = ss
		}
		ss.TotalAttempts++
		if a.Admitted {
			ss.SuccessfulAttempts++
		} else {
			ss.FailedAttempts++
		}
		if a.SubmittedAt.After(ss.LastAttempt) || ss.LastAttempt.IsZero() {
			ss.LastAttempt = a.SubmittedAt
			ss.FullName = a.FullName
		}
	}

	stats := make([]StudentStats, 0, len(byPRN))
	for _, ss := range byPRN {
		ss.AttendanceRate = percent(ss.SuccessfulAttempts, ss.TotalAttempts)
		stats = append(stats, *ss)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PRN < stats[j].PRN })
	return stats
}

func dailyStats(attempts []CheckInAttempt) []DailyStats {
	byDay := make(map[string]*DailyStats)
	students := make(map[string]map[string]struct{})
	for _, a := range attempts {
		key := a.SubmittedAt.UTC().Format(dayLayout)
		ds, ok := byDay[key]
		if !ok {
			ds = &DailyStats{Date: key}
			byDay[key] = ds
			students[key] = make(map[string]struct{})
		}
		ds.TotalAttempts++
		if a.Admitted {
			ds.SuccessfulAttempts++
		} else {
			ds.FailedAttempts++
		}
		students[key][a.PRN] = struct{}{}
	}

	days := make([]DailyStats, 0, len(byDay))
	for key, ds := range byDay {
		ds.UniqueStudents = len(students[key])
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	return days
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// FilterAttempts returns the attempts matching filter, in their original order.
func FilterAttempts(attempts []CheckInAttempt, filter *QueryFilter) []CheckInAttempt {
	if filter.IsEmpty() {
		return attempts
	}
	filtered := make([]CheckInAttempt, 0, len(attempts))
	for _, a := range attempts {
		if filter.Matches(a) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// SortAttempts sorts in place by the given orderings (submitted_at, prn, full_name,
// distance_meters, outcome). Without a usable ordering it sorts newest first.
// Attempts without a distance rank as the farthest.
func SortAttempts(attempts []CheckInAttempt, ordering []core.DBOrdering) {
	usable := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if _, ok := attemptComparators[ord.Field]; ok {
			usable = append(usable, ord)
		}
	}
	if len(usable) == 0 {
		usable = []core.DBOrdering{{Field: "submitted_at"}}
	}

	sort.SliceStable(attempts, func(i, j int) bool {
		for _, ord := range usable {
			c := attemptComparators[ord.Field](attempts[i], attempts[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

var attemptComparators = map[string]func(a, b CheckInAttempt) int{
	"submitted_at": func(a, b CheckInAttempt) int { return a.SubmittedAt.Compare(b.SubmittedAt) },
	"prn":          func(a, b CheckInAttempt) int { return strings.Compare(a.PRN, b.PRN) },
	"full_name": func(a, b CheckInAttempt) int {
		return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
	},
	"outcome": func(a, b CheckInAttempt) int { return strings.Compare(string(a.Outcome), string(b.Outcome)) },
	"distance_meters": func(a, b CheckInAttempt) int {
		switch {
		case a.DistanceMeters == nil && b.DistanceMeters == nil:
			return 0
		case a.DistanceMeters == nil:
			return 1
		case b.DistanceMeters == nil:
			return -1
		case *a.DistanceMeters < *b.DistanceMeters:
			return -1
		case *a.DistanceMeters > *b.DistanceMeters:
			return 1
		}
		return 0
	},
}
