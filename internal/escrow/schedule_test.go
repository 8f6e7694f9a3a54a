package escrow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceOnPayment_SingleInterval(t *testing.T) {
	due := time.Unix(1_700_000_000, 0).UTC()
	got := AdvanceOnPayment(due, time.Hour)
	assert.True(t, got.Equal(due.Add(time.Hour)))

	// A late redemption still advances by exactly one interval.
	assert.True(t, AdvanceOnPayment(due, time.Hour).Equal(got))
}

func TestExtendOnResume_RoundTrip(t *testing.T) {
	due := time.Unix(1_700_000_000, 0).UTC()
	pauseStart := due.Add(30 * time.Minute)

	tests := []struct {
		name    string
		resume  time.Time
		want    time.Time
		wantErr bool
	}{
		{name: "two hour pause", resume: pauseStart.Add(2 * time.Hour), want: due.Add(2 * time.Hour)},
		{name: "zero-length pause", resume: pauseStart, want: due},
		{name: "resume before pause start", resume: pauseStart.Add(-time.Second), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtendOnResume(due, pauseStart, tt.resume)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeNonMonotonicSchedule, CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want))
		})
	}
}
