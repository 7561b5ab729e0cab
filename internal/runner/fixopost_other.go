//go:build !linux && !windows && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package runner

func fixOutputProcessing(fd int) {}
