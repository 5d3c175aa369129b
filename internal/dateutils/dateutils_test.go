package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso", input: "2024-03-15", want: want},
		{name: "european", input: "15.03.2024", want: want},
		{name: "short european", input: "5.3.2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "day first slash", input: "15/03/2024", want: want},
		{name: "rfc3339", input: "2024-03-15T10:30:00+02:00", want: time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)},
		{name: "full", input: "2024-03-15 00:00:00", want: want},
		{name: "month name", input: "Mar 15, 2024", want: want},
		{name: "extra whitespace", input: "  15  Mar   2024 ", want: want},
		{name: "empty", input: "  ", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestLookbackWindow(t *testing.T) {
	ref := time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC)
	cutoff := LookbackCutoff(ref, 90)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), cutoff)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{name: "cutoff day", date: cutoff, want: true},
		{name: "day before cutoff", date: cutoff.AddDate(0, 0, -1), want: false},
		{name: "reference day late", date: time.Date(2024, 4, 30, 23, 59, 0, 0, time.UTC), want: true},
		{name: "after reference", date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.date, cutoff, ref))
		})
	}
}

func TestToISODate(t *testing.T) {
	assert.Equal(t, "2024-01-05", ToISODate(time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)))
}
