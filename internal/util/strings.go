// Package util holds text helpers shared by the tools, the stage log lines
// and the CLI.
package util

// Head returns the first n runes of s. n <= 0 returns s unchanged.
func Head(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Clip shortens s to n runes and marks the cut with "...". Strings that
// already fit are returned as is.
func Clip(s string, n int) string {
	if head := Head(s, n); len(head) < len(s) {
		return head + "..."
	}
	return s
}
