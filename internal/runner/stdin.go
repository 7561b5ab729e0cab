package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// startStdinToggle reads single keypresses from stdin and toggles the
// pauser on Enter or Space. The returned cleanup restores the terminal.
// When stdin is not a terminal it returns a nil pauser and a no-op cleanup.
func startStdinToggle(quiet bool) (pauser *Pauser, cleanup func()) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "[!] Could not enable raw terminal: %v\n", err)
		}
		return nil, func() {}
	}

	// MakeRaw disables OPOST, which breaks \n -> \r\n for progress output.
	fixOutputProcessing(fd)

	pauser = NewPauser()

	cleanup = func() {
		_ = term.Restore(fd, oldState)
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				if err != io.EOF && !quiet {
					fmt.Fprintf(os.Stderr, "\r\033[K[!] Stopped reading keys: %v\n", err)
				}
				return
			}
			if n == 0 {
				continue
			}

			switch key := buf[0]; key {
			case 0x03:
				// Ctrl+C: restore the terminal and re-raise SIGINT so the
				// signal context cancels the run.
				_ = term.Restore(fd, oldState)
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				nowPaused := pauser.Toggle()
				if quiet {
					continue
				}
				if nowPaused {
					fmt.Fprintf(os.Stderr, "\r\033[K[*] Run PAUSED after the current route, press Enter or Space to resume\n")
				} else {
					fmt.Fprintf(os.Stderr, "\r\033[K[*] Run RESUMED (paused %s in total)\n", pauser.PausedDuration().Round(time.Second))
				}
			}
		}
	}()

	return pauser, cleanup
}
