// Package safeconv provides overflow-checked integer arithmetic.
package safeconv

// CheckedSubInt64 returns a-b and false if the subtraction overflows int64.
func CheckedSubInt64(a, b int64) (int64, bool) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, false
	}

	return diff, true
}
