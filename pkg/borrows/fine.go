package borrows

import (
	"math"
	"time"
)

// ComputeFine charges perDay for every started day between due and returned.
// A return at or before the due time costs nothing.
func ComputeFine(due, returned time.Time, perDay float64) float64 {
	if !returned.After(due) {
		return 0
	}
	days := math.Ceil(returned.Sub(due).Hours() / 24)
	return days * perDay
}
