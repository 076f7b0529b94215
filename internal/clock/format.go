package clock

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as minutes:seconds with tenths of a
// second, e.g. "25:00.0". Display only; negative inputs render as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	rem := d - time.Duration(minutes)*time.Minute
	seconds := int(rem / time.Second)
	tenths := int((rem - time.Duration(seconds)*time.Second) / (100 * time.Millisecond))
	return fmt.Sprintf("%d:%02d.%d", minutes, seconds, tenths)
}
