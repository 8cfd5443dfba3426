package util

import (
	"math"
	"regexp"
	"strconv"
)

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

var isoDurationUnits = [3]int{3600, 60, 1}

// ParseISODuration converts the PT#H#M#S subset of ISO-8601 into seconds.
// Input without the PT prefix yields 0 instead of an error, and so does a
// value too large to fit in an int.
func ParseISODuration(s string) int {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range isoDurationUnits {
		n, ok := durationPart(m[i+1])
		if !ok || n > (math.MaxInt-total)/unit {
			return 0
		}
		total += n * unit
	}
	return total
}

func durationPart(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
