package slots

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetadmin/internal/records"
)

func tp(s string) *string { return &s }

func TestIsDateBlocked(t *testing.T) {
	slots := []records.BlockedSlot{
		{ID: 1, Date: "2024-06-01T00:00:00.000Z", Time: nil},
		{ID: 2, Date: "2024-06-02", Time: tp("10:00:00")},
	}

	assert.True(t, IsDateBlocked("2024-06-01", slots))
	assert.False(t, IsDateBlocked("2024-06-02", slots), "a partial block is not a whole-day block")
	assert.False(t, IsDateBlocked("2024-06-03", slots))
	assert.False(t, IsDateBlocked("2024-06-01", nil))
}

func TestIsTimeBlocked(t *testing.T) {
	slots := []records.BlockedSlot{{ID: 1, Date: "2024-06-01", Time: nil}}

	assert.True(t, IsTimeBlocked("2024-06-01", "09:00:00", slots))
	assert.False(t, IsTimeBlocked("2024-06-02", "09:00:00", slots))

	partial := []records.BlockedSlot{{ID: 2, Date: "2024-06-02", Time: tp("10:00:00")}}
	assert.True(t, IsTimeBlocked("2024-06-02", "10:00:00", partial))
	assert.True(t, IsTimeBlocked("2024-06-02", "10:00", partial), "HH:MM matches HH:MM:SS")
	assert.False(t, IsTimeBlocked("2024-06-02", "11:00:00", partial))
}

func TestIsTimeBlocked_Definition(t *testing.T) {
	slots := []records.BlockedSlot{
		{ID: 1, Date: "2024-06-01", Time: nil},
		{ID: 2, Date: "2024-06-02", Time: tp("09:00:00")},
		{ID: 3, Date: "2024-06-02", Time: tp("13:00:00")},
		{ID: 4, Date: "2024-06-03", Time: tp("09:00:00")},
		{ID: 5, Date: "2024-06-03", Time: nil},
	}
	dates := []string{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04"}
	times := []string{"09:00:00", "13:00:00", "21:00:00"}

	for _, d := range dates {
		for _, tm := range times {
			exact := false
			for _, s := range slots {
				if s.Date == d && s.Time != nil && *s.Time == tm {
					exact = true
				}
			}
			want := IsDateBlocked(d, slots) || exact
			assert.Equal(t, want, IsTimeBlocked(d, tm, slots), "%s %s", d, tm)
		}
	}
}

func TestMatching_NilMatchesOnlyNil(t *testing.T) {
	slots := []records.BlockedSlot{
		{ID: 1, Date: "2024-06-01", Time: tp("10:00:00")},
		{ID: 2, Date: "2024-06-01", Time: nil},
	}
	got := Matching("2024-06-01", nil, slots)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got = Matching("2024-06-01", tp("10:00"), slots)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestDayString_StableAcrossZones(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	for _, name := range zones {
		loc, err := time.LoadLocation(name)
		require.NoError(t, err)

		late := time.Date(2024, time.June, 1, 23, 30, 0, 0, loc)
		early := time.Date(2024, time.June, 1, 0, 15, 0, 0, loc)
		assert.Equal(t, "2024-06-01", DayString(late), name)
		assert.Equal(t, "2024-06-01", DayString(early), name)
	}
}

func TestDayKeyAndParseDay(t *testing.T) {
	assert.Equal(t, "2024-06-01", DayKey("2024-06-01T15:00:00.000Z"))
	assert.Equal(t, "2024-06-01", DayKey("2024-06-01"))

	d, err := ParseDay("2024-06-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", DayString(d))

	_, err = ParseDay("01/06/2024", time.UTC)
	assert.Error(t, err)
}

func TestNormalizeTime(t *testing.T) {
	got, err := NormalizeTime("9:00")
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", got)

	got, err = NormalizeTime("13:30:15")
	require.NoError(t, err)
	assert.Equal(t, "13:30:15", got)

	for _, bad := range []string{"", "25:00", "10", "10:61", "aa:bb"} {
		_, err := NormalizeTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolverDay_Coexist(t *testing.T) {
	grid, err := GridFromTimes([]string{"09:00", "10:00", "13:00"})
	require.NoError(t, err)
	r := NewResolver(PolicyCoexist, grid)

	slots := []records.BlockedSlot{
		{ID: 1, Date: "2024-06-01", Time: tp("10:00:00")},
		{ID: 2, Date: "2024-06-01", Time: nil},
	}
	day := r.Day("2024-06-01", slots)

	assert.True(t, day.WholeDay)
	assert.True(t, day.AnyBlock)
	require.Len(t, day.Times, 3)
	for _, ts := range day.Times {
		assert.True(t, ts.Blocked, ts.Value)
	}
	assert.True(t, day.Times[0].Disabled)
	assert.False(t, day.Times[1].Disabled, "explicitly blocked time stays reachable")
	assert.True(t, day.Times[2].Disabled)
}

func TestResolverDay_Supersede(t *testing.T) {
	grid, err := GridFromTimes([]string{"09:00", "10:00"})
	require.NoError(t, err)
	r := NewResolver(PolicySupersede, grid)

	slots := []records.BlockedSlot{
		{ID: 1, Date: "2024-06-01", Time: tp("10:00:00")},
		{ID: 2, Date: "2024-06-01", Time: nil},
	}
	day := r.Day("2024-06-01", slots)
	for _, ts := range day.Times {
		assert.True(t, ts.Blocked)
		assert.True(t, ts.Disabled)
	}
}

func TestResolverDay_PartialOnly(t *testing.T) {
	r := NewResolver("", Grid{})
	slots := []records.BlockedSlot{{ID: 1, Date: "2024-06-01", Time: tp("13:00:00")}}

	day := r.Day("2024-06-01", slots)
	assert.False(t, day.WholeDay)
	assert.True(t, day.AnyBlock)
	for _, ts := range day.Times {
		assert.Equal(t, ts.Value == "13:00:00", ts.Blocked, ts.Value)
		assert.False(t, ts.Disabled)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCoexist, p)

	p, err = ParsePolicy("Supersede")
	require.NoError(t, err)
	assert.Equal(t, PolicySupersede, p)

	_, err = ParsePolicy("merge")
	assert.Error(t, err)
}
