package engine

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"

	"github.com/lixenwraith/fluxel/terminal"
)

// crashHandler holds func(any); replaceable so main can route crashes
// through its logger before resetting the terminal
var crashHandler atomic.Value

func init() {
	crashHandler.Store(defaultCrashHandler)
}

// SetCrashHandler replaces the handler invoked when a goroutine started
// with Go panics. The handler must not return control to the program;
// the goroutine's work is gone.
func SetCrashHandler(fn func(r any)) {
	if fn != nil {
		crashHandler.Store(fn)
	}
}

// HandleCrash invokes the installed crash handler with the recovered value
func HandleCrash(r any) {
	if r == nil {
		return
	}
	crashHandler.Load().(func(r any))(r)
}

// defaultCrashHandler restores the terminal and dies loudly.
// \r\n throughout: the terminal is likely still in raw mode.
func defaultCrashHandler(r any) {
	terminal.EmergencyReset(os.Stdout)

	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())

	os.Stderr.Sync()
	os.Exit(1)
}

// Go runs fn in a new goroutine with panic recovery routed to the crash
// handler. Use this instead of the go keyword so a panicking pattern or
// reader cannot leave the terminal in raw mode.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
