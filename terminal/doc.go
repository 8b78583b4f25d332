// Package terminal provides direct ANSI terminal control for full-screen
// cell animation.
//
// Features:
//   - True color (24-bit) and 256-color palette output
//   - Alternate screen, raw mode, cursor and auto-wrap management
//   - Single-write frame output (the caller assembles a complete frame)
//   - Raw stdin input parsing with escape sequence handling
//   - SGR mouse reporting (click and motion tracking)
//   - SIGWINCH resize detection
//   - Clean terminal restoration on exit/panic
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI
// sequences. Target environments: Linux, macOS, BSDs with xterm-compatible
// terminals.
package terminal
