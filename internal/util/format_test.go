package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                     "-",
		-time.Second:                          "-",
		500 * time.Microsecond:                "500µs",
		1234567 * time.Microsecond:            "1.234s",
		90*time.Second + 750*time.Millisecond: "1m30s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "input %v", in)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "-", FormatAge(now, time.Time{}))
	assert.Equal(t, "-", FormatAge(now, now.Add(time.Minute)))
	assert.Equal(t, "2m5s", FormatAge(now, now.Add(-125*time.Second)))
}
