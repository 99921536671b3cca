package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
)

func attemptAt(prn, name string, outcome Outcome, distance float64, at time.Time) CheckInAttempt {
	a := CheckInAttempt{PRN: prn, FullName: name, SubmittedAt: at, Outcome: outcome, Admitted: outcome == OutcomeAdmitted}
	if outcome.HasDistance() {
		a.DistanceMeters = &distance
	}
	return a
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay(" 2026-03-14 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), day)

	day, err = ParseDay("")
	require.NoError(t, err)
	assert.True(t, day.IsZero())

	_, err = ParseDay("14/03/2026")
	assert.Equal(t, ErrInvalidDate, err)
}

func TestSummarize(t *testing.T) {
	d1 := time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	attempts := []CheckInAttempt{
		attemptAt("002", "Baraka", OutcomeOutsideRadius, 120, d1),
		attemptAt("001", "Amani", OutcomeAdmitted, 10, d1.Add(time.Minute)),
		attemptAt("002", "Baraka Otieno", OutcomeAdmitted, 20, d2),
		attemptAt("001", "Amani", OutcomeWindowClosed, 0, d2.Add(time.Hour)),
	}

	sum := Summarize(attempts, time.Time{})
	assert.Equal(t, Stats{Total: 4, Successful: 2, Failed: 2, SuccessRate: 50}, sum.Stats)
	assert.Nil(t, sum.SelectedDay)
	assert.Empty(t, sum.DayAttempts)

	require.Len(t, sum.Students, 2)
	assert.Equal(t, "001", sum.Students[0].PRN)
	assert.Equal(t, "002", sum.Students[1].PRN)
	assert.Equal(t, "Baraka Otieno", sum.Students[1].FullName, "latest name wins")
	assert.Equal(t, d2, sum.Students[1].LastAttempt)
	assert.Equal(t, 50.0, sum.Students[1].AttendanceRate)

	require.Len(t, sum.Days, 2)
	assert.Equal(t, DailyStats{Date: "2026-03-14", TotalAttempts: 2, SuccessfulAttempts: 1, FailedAttempts: 1, UniqueStudents: 2}, sum.Days[0])
	assert.Equal(t, "2026-03-13", sum.Days[1].Date)

	t.Run("selected day", func(t *testing.T) {
		sum := Summarize(attempts, d2)
		require.NotNil(t, sum.SelectedDay)
		assert.Equal(t, sum.Days[0], *sum.SelectedDay)
		require.Len(t, sum.DayAttempts, 2)
		assert.Equal(t, OutcomeWindowClosed, sum.DayAttempts[0].Outcome, "newest first")
	})

	t.Run("selected day without attempts", func(t *testing.T) {
		sum := Summarize(attempts, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NotNil(t, sum.SelectedDay)
		assert.Equal(t, DailyStats{Date: "2026-01-01"}, *sum.SelectedDay)
		assert.Empty(t, sum.DayAttempts)
	})

	t.Run("no attempts", func(t *testing.T) {
		sum := Summarize(nil, time.Time{})
		assert.Equal(t, Stats{}, sum.Stats)
		assert.Empty(t, sum.Students)
		assert.Empty(t, sum.Days)
	})
}

func TestBuildStudentReport(t *testing.T) {
	feb := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	attempts := []CheckInAttempt{
		attemptAt("001", "Amani", OutcomeAdmitted, 3, feb),
		attemptAt("002", "Baraka", OutcomeAdmitted, 3, feb),
		attemptAt("001", "Amani", OutcomeOutsideRadius, 300, mar),
		attemptAt("001", "Amani K.", OutcomeAdmitted, 8, mar.Add(24*time.Hour)),
	}

	report, err := BuildStudentReport("001", attempts)
	require.NoError(t, err)
	assert.Equal(t, "001", report.PRN)
	assert.Equal(t, "Amani K.", report.FullName)
	assert.Equal(t, Stats{Total: 3, Successful: 2, Failed: 1, SuccessRate: 66.67}, report.Stats)
	assert.Equal(t, []MonthlyStats{
		{Month: "2026-03", Total: 2, Successful: 1, Failed: 1},
		{Month: "2026-02", Total: 1, Successful: 1},
	}, report.Monthly)
	assert.Equal(t, feb, report.FirstAttempt)
	assert.Equal(t, mar.Add(24*time.Hour), report.LastAttempt)
	require.Len(t, report.Records, 3)
	assert.Equal(t, report.LastAttempt, report.Records[0].SubmittedAt)

	_, err = BuildStudentReport("404", attempts)
	assert.Equal(t, ErrNoAttempts, err)
}

func TestSortAttempts(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	a := attemptAt("003", "carol", OutcomeAdmitted, 5, now)
	b := attemptAt("001", "Bob", OutcomeOutsideRadius, 90, now.Add(time.Minute))
	c := attemptAt("002", "alice", OutcomeWindowClosed, 0, now.Add(2*time.Minute))

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []CheckInAttempt
	}{
		{name: "default is newest first", want: []CheckInAttempt{c, b, a}},
		{name: "unknown field falls back", ordering: []core.DBOrdering{{Field: "lol"}}, want: []CheckInAttempt{c, b, a}},
		{name: "submitted_at", ordering: []core.DBOrdering{{Field: "submitted_at", Ascending: true}}, want: []CheckInAttempt{a, b, c}},
		{name: "prn", ordering: []core.DBOrdering{{Field: "prn", Ascending: true}}, want: []CheckInAttempt{b, c, a}},
		{name: "full_name ignores case", ordering: []core.DBOrdering{{Field: "full_name", Ascending: true}}, want: []CheckInAttempt{c, b, a}},
		{name: "distance, missing is farthest", ordering: []core.DBOrdering{{Field: "distance_meters", Ascending: true}}, want: []CheckInAttempt{a, b, c}},
		{name: "-distance", ordering: []core.DBOrdering{{Field: "distance_meters"}}, want: []CheckInAttempt{c, b, a}},
		{
			name:     "admitted then newest",
			ordering: []core.DBOrdering{{Field: "outcome", Ascending: true}, {Field: "submitted_at"}},
			want:     []CheckInAttempt{a, b, c},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []CheckInAttempt{a, b, c}
			SortAttempts(got, tt.ordering)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryFilter_Matches(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	a := attemptAt("001", "Amani", OutcomeAdmitted, 5, now)
	yes, no := true, false

	tests := []struct {
		name   string
		filter *QueryFilter
		want   bool
	}{
		{name: "nil", filter: nil, want: true},
		{name: "empty", filter: &QueryFilter{}, want: true},
		{name: "prn", filter: &QueryFilter{PRN: "001"}, want: true},
		{name: "other prn", filter: &QueryFilter{PRN: "002"}, want: false},
		{name: "admitted", filter: &QueryFilter{Admitted: &yes}, want: true},
		{name: "not admitted", filter: &QueryFilter{Admitted: &no}, want: false},
		{name: "outcomes", filter: &QueryFilter{Outcomes: []string{"OUTSIDE_RADIUS", "ADMITTED"}}, want: true},
		{name: "other outcome", filter: &QueryFilter{Outcomes: []string{"WINDOW_CLOSED"}}, want: false},
		{name: "from (inclusive)", filter: &QueryFilter{From: now}, want: true},
		{name: "from later", filter: &QueryFilter{From: now.Add(time.Second)}, want: false},
		{name: "to (inclusive)", filter: &QueryFilter{To: now}, want: true},
		{name: "to earlier", filter: &QueryFilter{To: now.Add(-time.Second)}, want: false},
		{name: "other timezone", filter: &QueryFilter{From: now.In(time.FixedZone("EAT", 3*3600))}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(a))
		})
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	qf := QueryFilter{PRN: "  001 ", Outcomes: []string{" ADMITTED", "", "  "}}
	qf.Clean()
	assert.Equal(t, "001", qf.PRN)
	assert.Equal(t, []string{"ADMITTED"}, qf.Outcomes)
}
