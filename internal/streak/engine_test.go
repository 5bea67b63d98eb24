package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func TestStateAdvance(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		completion  time.Time
		wantState   State
		wantChanged bool
	}{
		{
			name:        "first valid completion ever",
			state:       State{},
			completion:  day("2024-01-10"),
			wantState:   State{Current: 1, Longest: 1, LastActivity: dayPtr("2024-01-10")},
			wantChanged: true,
		},
		{
			name:        "consecutive day increments",
			state:       State{Current: 3, Longest: 5, LastActivity: dayPtr("2024-01-09")},
			completion:  day("2024-01-10"),
			wantState:   State{Current: 4, Longest: 5, LastActivity: dayPtr("2024-01-10")},
			wantChanged: true,
		},
		{
			name:        "increment pushes longest",
			state:       State{Current: 5, Longest: 5, LastActivity: dayPtr("2024-01-09")},
			completion:  day("2024-01-10"),
			wantState:   State{Current: 6, Longest: 6, LastActivity: dayPtr("2024-01-10")},
			wantChanged: true,
		},
		{
			name:        "second completion of the same day is a no-op",
			state:       State{Current: 4, Longest: 6, LastActivity: dayPtr("2024-01-10")},
			completion:  day("2024-01-10").Add(8 * time.Hour),
			wantState:   State{Current: 4, Longest: 6, LastActivity: dayPtr("2024-01-10")},
			wantChanged: false,
		},
		{
			name:        "gap restarts at one, longest kept",
			state:       State{Current: 7, Longest: 9, LastActivity: dayPtr("2024-01-05")},
			completion:  day("2024-01-10"),
			wantState:   State{Current: 1, Longest: 9, LastActivity: dayPtr("2024-01-10")},
			wantChanged: true,
		},
		{
			name:        "backfilled earlier day is ignored",
			state:       State{Current: 2, Longest: 2, LastActivity: dayPtr("2024-01-10")},
			completion:  day("2024-01-08"),
			wantState:   State{Current: 2, Longest: 2, LastActivity: dayPtr("2024-01-10")},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := tt.state.Advance(tt.completion)
			assert.Equal(t, tt.wantState, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestAdvanceIdempotentPerDay(t *testing.T) {
	s := State{}
	s, changed := s.Advance(day("2024-01-10"))
	assert.True(t, changed)

	again, changed := s.Advance(day("2024-01-10").Add(3 * time.Hour))
	assert.False(t, changed)
	assert.Equal(t, s, again)
}

func TestLongestNeverDecreases(t *testing.T) {
	s := State{Current: 2, Longest: 8, LastActivity: dayPtr("2024-01-01")}

	for _, d := range []string{"2024-01-02", "2024-01-07", "2024-01-08", "2024-02-01"} {
		s, _ = s.Advance(day(d))
		assert.GreaterOrEqual(t, s.Longest, s.Current)
		assert.GreaterOrEqual(t, s.Longest, 8)
	}
}

func TestDecayed(t *testing.T) {
	now := day("2024-01-10").Add(3 * time.Hour)

	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"activity yesterday survives", State{Current: 4, Longest: 4, LastActivity: dayPtr("2024-01-09")}, false},
		{"activity today survives", State{Current: 4, Longest: 4, LastActivity: dayPtr("2024-01-10")}, false},
		{"two days silent decays", State{Current: 4, Longest: 4, LastActivity: dayPtr("2024-01-08")}, true},
		{"cold streak never decays", State{Current: 0, Longest: 4, LastActivity: dayPtr("2024-01-01")}, false},
		{"active with no history decays", State{Current: 1, Longest: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Decayed(now))
		})
	}
}

func TestDecaySweepIdempotent(t *testing.T) {
	now := day("2024-01-10")
	s := State{Current: 4, Longest: 6, LastActivity: dayPtr("2024-01-07")}

	assert.True(t, s.Decayed(now))
	s.Current = 0
	// Re-running the sweep sees nothing left to do.
	assert.False(t, s.Decayed(now))
}

func TestRecompute(t *testing.T) {
	now := day("2024-01-10").Add(15 * time.Hour)

	tests := []struct {
		name string
		days []string
		want State
	}{
		{
			name: "empty history",
			days: nil,
			want: State{},
		},
		{
			name: "run ending today",
			days: []string{"2024-01-08", "2024-01-09", "2024-01-10"},
			want: State{Current: 3, Longest: 3, LastActivity: dayPtr("2024-01-10")},
		},
		{
			name: "run ending yesterday still current",
			days: []string{"2024-01-08", "2024-01-09"},
			want: State{Current: 2, Longest: 2, LastActivity: dayPtr("2024-01-09")},
		},
		{
			name: "stale history keeps longest only",
			days: []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-06"},
			want: State{Current: 0, Longest: 3, LastActivity: dayPtr("2024-01-06")},
		},
		{
			name: "duplicates within a day collapse",
			days: []string{"2024-01-09", "2024-01-09", "2024-01-10", "2024-01-10"},
			want: State{Current: 2, Longest: 2, LastActivity: dayPtr("2024-01-10")},
		},
		{
			name: "unordered input",
			days: []string{"2024-01-10", "2024-01-08", "2024-01-09", "2024-01-02"},
			want: State{Current: 3, Longest: 3, LastActivity: dayPtr("2024-01-10")},
		},
		{
			name: "rows dated after now are not current",
			days: []string{"2024-01-14", "2024-01-15"},
			want: State{Current: 0, Longest: 2, LastActivity: dayPtr("2024-01-15")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var days []time.Time
			for _, d := range tt.days {
				days = append(days, day(d))
			}
			assert.Equal(t, tt.want, Recompute(days, now))
		})
	}
}

func TestRecomputeMatchesUncompleteRollback(t *testing.T) {
	// Completing Jan 8..10 then deleting Jan 10's completion must leave the
	// streak exactly as if Jan 10 never happened.
	now := day("2024-01-10").Add(20 * time.Hour)

	s := State{}
	for _, d := range []string{"2024-01-08", "2024-01-09", "2024-01-10"} {
		s, _ = s.Advance(day(d))
	}
	assert.Equal(t, 3, s.Current)

	rolledBack := Recompute([]time.Time{day("2024-01-08"), day("2024-01-09")}, now)
	assert.Equal(t, State{Current: 2, Longest: 2, LastActivity: dayPtr("2024-01-09")}, rolledBack)
}
