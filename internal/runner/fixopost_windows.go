//go:build windows

package runner

// fixOutputProcessing is a no-op on Windows, where raw mode leaves output
// processing alone.
func fixOutputProcessing(fd int) {}
