package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	t.Run("duration is preserved", func(t *testing.T) {
		start := ParseInstant("2025-01-01")
		end := ParseInstant("2025-01-01T17:00:00")
		nextStart, nextEnd := Advance(start, end, *daily(2))

		assert.Equal(t, mo.Some(date(2025, 1, 3)), nextStart)
		assert.Equal(t, mo.Some(time.Date(2025, 1, 3, 17, 0, 0, 0, time.UTC)), nextEnd)
	})

	t.Run("date only inputs stay date only", func(t *testing.T) {
		nextStart, nextEnd := Advance(ParseInstant("2024-01-15"), ParseInstant("2024-01-20"), *daily(3))
		assert.Equal(t, mo.Some(date(2024, 1, 18)), nextStart)
		assert.Equal(t, mo.Some(date(2024, 1, 23)), nextEnd)
	})

	t.Run("no end stays absent", func(t *testing.T) {
		rule := Rule{Enabled: true, Frequency: FrequencyWeekly, Interval: 1, WeeklyDays: []int{1, 4}}
		nextStart, nextEnd := Advance(mo.Some(date(2024, 4, 5)), mo.None[time.Time](), rule)
		assert.Equal(t, mo.Some(date(2024, 4, 9)), nextStart)
		assert.True(t, nextEnd.IsAbsent())
	})

	t.Run("no start yields nothing", func(t *testing.T) {
		nextStart, nextEnd := Advance(mo.None[time.Time](), mo.Some(date(2024, 4, 5)), *daily(1))
		assert.True(t, nextStart.IsAbsent())
		assert.True(t, nextEnd.IsAbsent())
	})

	t.Run("monthly clamp shifts the end by the same duration", func(t *testing.T) {
		rule := Rule{Enabled: true, Frequency: FrequencyMonthly, Interval: 1, MonthlyDay: mo.Some(35)}
		nextStart, nextEnd := Advance(mo.Some(date(2024, 1, 15)), mo.Some(date(2024, 1, 20)), rule)
		assert.Equal(t, mo.Some(date(2024, 2, 29)), nextStart)
		assert.Equal(t, mo.Some(date(2024, 3, 5)), nextEnd)
	})

	t.Run("clock and zone of the start are kept", func(t *testing.T) {
		sgt := time.FixedZone("SGT", 8*60*60)
		start := time.Date(2025, 10, 20, 9, 0, 0, 0, sgt)
		end := time.Date(2025, 10, 20, 23, 59, 59, 0, sgt)
		rule := Rule{Enabled: true, Frequency: FrequencyWeekly, Interval: 1, WeeklyDays: []int{0, 2}}

		nextStart, nextEnd := Advance(mo.Some(start), mo.Some(end), rule)
		require.True(t, nextStart.IsPresent())
		assert.True(t, time.Date(2025, 10, 22, 9, 0, 0, 0, sgt).Equal(nextStart.MustGet()))
		assert.True(t, time.Date(2025, 10, 22, 23, 59, 59, 0, sgt).Equal(nextEnd.MustGet()))
	})

	t.Run("non positive interval is coerced", func(t *testing.T) {
		nextStart, _ := Advance(mo.Some(date(2024, 1, 1)), mo.None[time.Time](), Rule{Enabled: true, Frequency: FrequencyDaily, Interval: -5})
		assert.Equal(t, mo.Some(date(2024, 1, 2)), nextStart)
	})
}

func TestShouldStop(t *testing.T) {
	after3 := FromMap(map[string]any{"enabled": true, "endCondition": "after", "endAfterOccurrences": 3})
	onDate := FromMap(map[string]any{"enabled": true, "endCondition": "onDate", "endDate": "2024-04-30"})

	tests := []struct {
		name  string
		rule  Rule
		index int
		start time.Time
		want  bool
	}{
		{"never", Rule{Enabled: true, EndCondition: EndNever}, 1000, date(2099, 1, 1), false},
		{"after within count", after3, 3, date(2024, 1, 9), false},
		{"after past count", after3, 4, date(2024, 1, 10), true},
		{"after with unparsable count", FromMap(map[string]any{"enabled": true, "endCondition": "after", "endAfterOccurrences": "lots"}), 99, date(2024, 1, 1), false},
		{"on date before the end", onDate, 2, date(2024, 4, 25), false},
		{"on date on the end", onDate, 2, time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC), false},
		{"on date past the end", onDate, 2, date(2024, 5, 1), true},
		{"on date with unparsable end", FromMap(map[string]any{"enabled": true, "end_condition": "on_date", "end_date": "soon"}), 2, date(2030, 1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldStop(tt.rule, tt.index, tt.start))
		})
	}
}

func TestNextAndPreview(t *testing.T) {
	rule := Rule{Enabled: true, Frequency: FrequencyDaily, Interval: 1, EndCondition: EndAfter, EndAfterOccurrences: 3}

	next := Next(mo.Some(date(2025, 1, 1)), mo.None[time.Time](), rule, 1)
	assert.Equal(t, 2, next.Index)
	assert.False(t, next.SeriesShouldStop)
	assert.Equal(t, mo.Some(date(2025, 1, 2)), next.Start)

	last := Next(mo.Some(date(2025, 1, 3)), mo.None[time.Time](), rule, 3)
	assert.True(t, last.SeriesShouldStop)

	undated := Next(mo.None[time.Time](), mo.None[time.Time](), rule, 1)
	assert.True(t, undated.SeriesShouldStop)

	preview := Preview(mo.Some(date(2025, 1, 1)), mo.Some(date(2025, 1, 1).Add(2*time.Hour)), rule, 1, 10)
	require.Len(t, preview, 2)
	assert.Equal(t, 2, preview[0].Index)
	assert.Equal(t, 3, preview[1].Index)
	assert.Equal(t, mo.Some(date(2025, 1, 3).Add(2*time.Hour)), preview[1].End)

	unbounded := Preview(mo.Some(date(2025, 1, 1)), mo.None[time.Time](), *daily(7), 1, 4)
	require.Len(t, unbounded, 4)
	assert.Equal(t, mo.Some(date(2025, 1, 29)), unbounded[3].Start)
}
