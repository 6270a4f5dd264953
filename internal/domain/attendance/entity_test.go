package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "08:30", want: NewTimeOfDay(8, 30, 0)},
		{input: "08:30:15", want: NewTimeOfDay(8, 30, 15)},
		{input: "00:00:00", want: 0},
		{input: "23:59:59", want: NewTimeOfDay(23, 59, 59)},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12:00:60", wantErr: true},
		{input: "noon", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_StringRoundTrip(t *testing.T) {
	orig := NewTimeOfDay(17, 5, 9)
	assert.Equal(t, "17:05:09", orig.String())

	parsed, err := ParseTimeOfDay(orig.String())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestDayRecord_State(t *testing.T) {
	in := NewTimeOfDay(8, 30, 0)
	out := NewTimeOfDay(17, 30, 0)

	tests := []struct {
		name string
		rec  DayRecord
		want RecordState
	}{
		{"empty", DayRecord{}, StateEmpty},
		{"in only", DayRecord{In: &in}, StateOpenIn},
		{"out only", DayRecord{Out: &out}, StateOpenOut},
		{"closed", DayRecord{In: &in, Out: &out}, StateClosed},
		{"backwards", DayRecord{In: &out, Out: &in}, StateInconsistent},
		{"equal sides", DayRecord{In: &in, Out: &in}, StateInconsistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.State())
		})
	}
}

func TestDayRecord_WorkedMinutes(t *testing.T) {
	in := NewTimeOfDay(8, 30, 0)
	out := NewTimeOfDay(17, 30, 0)

	assert.Equal(t, 0, (&DayRecord{}).WorkedMinutes())
	assert.Equal(t, 0, (&DayRecord{In: &in}).WorkedMinutes())
	assert.Equal(t, 0, (&DayRecord{Out: &out}).WorkedMinutes())
	assert.Equal(t, 540, (&DayRecord{In: &in, Out: &out}).WorkedMinutes())
}

func TestDayRecord_OpenIn(t *testing.T) {
	in := NewTimeOfDay(8, 30, 0)
	out := NewTimeOfDay(17, 30, 0)

	assert.True(t, (&DayRecord{In: &in}).OpenIn())
	assert.False(t, (&DayRecord{Out: &out}).OpenIn(), "a lone check-out is open but not an open check-in")
	assert.False(t, (&DayRecord{In: &in, Out: &out}).OpenIn())
	assert.False(t, (&DayRecord{}).OpenIn())
}

func TestCheckEvent_SplitsTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 2, 8, 29, 57, 0, time.UTC)
	ev := NewCheckEvent(42, CheckIn, at)

	assert.Equal(t, DateOf(at), ev.Date)
	assert.Equal(t, NewTimeOfDay(8, 29, 57), ev.Time)
	assert.Equal(t, at, ev.At())
}
