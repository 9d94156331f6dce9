package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(0))
	assert.Equal(t, "00:00:59", FormatDuration(59))
	assert.Equal(t, "00:02:30", FormatDuration(150))
	assert.Equal(t, "01:01:01", FormatDuration(3661))
	assert.Equal(t, "27:46:39", FormatDuration(99999))
}

func TestFormatDuration_NegativeClampsToZero(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(-5))
}

func TestFormatDurationFriendly(t *testing.T) {
	assert.Equal(t, "0m", FormatDurationFriendly(0))
	assert.Equal(t, "0m", FormatDurationFriendly(59))
	assert.Equal(t, "2m", FormatDurationFriendly(150))
	assert.Equal(t, "1h 30m", FormatDurationFriendly(5400))
	assert.Equal(t, "5h 32m", FormatDurationFriendly(5*3600+32*60+45))
}

func TestFormatTimeAndDate(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "02:05:09 PM", FormatTime(ts))
	assert.Equal(t, "Mar 07, 2025", FormatDate(ts))
}
