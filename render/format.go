package render

import (
	"fmt"
	"math"
)

// FormatTimecode renders a timecode in seconds as M:SS, or H:MM:SS at an
// hour and above. Negative or non-finite values render as 0:00.
func FormatTimecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
