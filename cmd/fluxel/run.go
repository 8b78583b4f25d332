package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/fluxel/config"
	"github.com/lixenwraith/fluxel/engine"
	"github.com/lixenwraith/fluxel/hud"
	"github.com/lixenwraith/fluxel/pattern"
	"github.com/lixenwraith/fluxel/render"
	"github.com/lixenwraith/fluxel/telemetry"
	"github.com/lixenwraith/fluxel/terminal"
	"github.com/lixenwraith/fluxel/theme"
)

// app bundles the running pieces for the input dispatcher and the
// config reload callback.
type app struct {
	sched  *engine.Scheduler
	mon    *telemetry.Monitor
	hud    *hud.HUD
	logger *log.Logger
	seed   uint64
}

func runAnimator(cmd *cobra.Command, args []string) error {
	cfgPath := configFlag
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	cfg := config.Default()
	if loaded, err := config.Load(cfgPath); err == nil {
		cfg = loaded
	} else if cmd.Flags().Changed("config") || !os.IsNotExist(err) {
		// A missing file at the default location is normal;
		// an explicit --config must exist
		return err
	}

	applyFlags(cmd, cfg)
	fixes := cfg.Normalize()

	logger := buildLogger(cfg.LogFile)
	for _, fix := range fixes {
		logger.Warn("config corrected", "fix", fix)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	p, err := pattern.New(cfg.Pattern, seed)
	if err != nil {
		return err
	}
	th, err := theme.Get(cfg.Theme)
	if err != nil {
		return err
	}

	var con *terminal.Console
	if mode, ok := cfg.Mode(); ok {
		con = terminal.New(mode)
	} else {
		con = terminal.New()
	}

	mouseMode := terminal.MouseModeNone
	if cfg.Mouse {
		mouseMode = terminal.MouseModeClick | terminal.MouseModeMotion
	}

	em := render.NewEmitter(con)
	if err := em.Init(mouseMode); err != nil {
		return err
	}
	defer em.Cleanup()

	// From here on the alternate screen is active. A crash must reset
	// the terminal before the stack trace prints, or it lands on the
	// alt screen and vanishes with it.
	engine.SetCrashHandler(func(r any) {
		terminal.EmergencyReset(os.Stdout)
		logger.Error("crash", "panic", r)
		// Use \r\n for raw mode compatibility to avoid zig-zag output
		fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
		fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
		os.Exit(1)
	})

	mon := telemetry.NewMonitor(cfg.FPS)
	clock := engine.NewTimeProvider()
	sched := engine.NewScheduler(em, mon, clock, logger, con.ResizeChan(), cfg.FPS)
	sched.SetPattern(p)
	sched.SetTheme(th)

	src := &hudSource{sched: sched, mon: mon}
	h := hud.New(em.Buffer(), src, clock)
	if !cfg.HUD {
		h.Toggle()
	}
	sched.SetAfterRender(h.Update)

	a := &app{sched: sched, mon: mon, hud: h, logger: logger, seed: seed}

	if watchFlag {
		w, err := config.Watch(cfgPath, logger, a.applyReload)
		if err != nil {
			logger.Warn("config watch unavailable", "error", err)
		} else {
			defer w.Close()
		}
	}

	quit := make(chan struct{})
	var quitOnce sync.Once
	requestQuit := func() { quitOnce.Do(func() { close(quit) }) }

	engine.Go(func() {
		for {
			ev := con.PollEvent()
			switch ev.Type {
			case terminal.EventClosed:
				requestQuit()
				return
			case terminal.EventError:
				logger.Error("input failed", "error", ev.Err)
				requestQuit()
				return
			case terminal.EventKey:
				if a.handleKey(ev) {
					requestQuit()
					return
				}
			case terminal.EventMouse:
				a.handleMouse(ev)
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := sched.Start(); err != nil {
		return err
	}

	logger.Info("running",
		"pattern", cfg.Pattern,
		"theme", cfg.Theme,
		"fps", cfg.FPS,
		"seed", seed)

	select {
	case <-quit:
	case sig := <-sigChan:
		logger.Info("signal received", "signal", sig)
	}

	sched.Stop()
	return nil
}

// applyFlags lays explicitly set command line flags over the loaded
// config. Unset flags keep the file's values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("pattern") {
		cfg.Pattern = patternFlag
	}
	if cmd.Flags().Changed("theme") {
		cfg.Theme = themeFlag
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = fpsFlag
	}
	if cmd.Flags().Changed("color") {
		cfg.Color = colorFlag
	}
	if cmd.Flags().Changed("mouse") {
		cfg.Mouse = mouseFlag
	}
	if cmd.Flags().Changed("no-hud") {
		cfg.HUD = !noHUDFlag
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = logFileFlag
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seedFlag
	}
}

// buildLogger returns a file-backed logger, or a discard logger when no
// log file is configured. Stderr is not an option while the alternate
// screen is active.
func buildLogger(path string) *log.Logger {
	if path == "" {
		return log.New(io.Discard)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable: %v\n", err)
		return log.New(io.Discard)
	}
	return log.NewWithOptions(f, log.Options{ReportTimestamp: true})
}

// handleKey reacts to a key event. Returns true when the program
// should quit.
func (a *app) handleKey(ev terminal.Event) bool {
	switch ev.Key {
	case terminal.KeyEscape, terminal.KeyCtrlC:
		return true
	case terminal.KeyRune:
	default:
		return false
	}

	switch ev.Rune {
	case 'q', 'Q':
		return true
	case ' ':
		if a.sched.TogglePause() {
			a.hud.ShowToast("paused")
		} else {
			a.hud.ShowToast("resumed")
		}
		a.hud.Refresh()
	case 'n', 'N':
		a.cyclePattern(+1)
	case 'p', 'P':
		a.cyclePattern(-1)
	case 't', 'T':
		th := theme.Next(a.themeName())
		a.sched.SetTheme(th)
		a.hud.ShowToast("theme: " + th.Name())
		a.hud.Refresh()
	case 'c', 'C':
		if pp, ok := a.sched.Pattern().(pattern.PresetProvider); ok {
			a.hud.ShowToast("variant: " + pp.NextPreset())
			a.hud.Refresh()
		}
	case '+', '=':
		a.showFPS(a.sched.AdjustFPS(5))
	case '-', '_':
		a.showFPS(a.sched.AdjustFPS(-5))
	case 'h', 'H':
		a.hud.ToggleHelp()
	case 'd', 'D':
		a.hud.Toggle()
	case 'r', 'R':
		a.mon.Reset()
		a.hud.ShowToast("stats reset")
		a.hud.Refresh()
	}
	return false
}

func (a *app) handleMouse(ev terminal.Event) {
	a.sched.SetMouse(ev.MouseX, ev.MouseY, true)
	if ev.MouseAction == terminal.MouseActionPress && ev.MouseBtn == terminal.MouseBtnLeft {
		if mr, ok := a.sched.Pattern().(pattern.MouseReactive); ok {
			mr.OnClick(ev.MouseX, ev.MouseY)
		}
	}
}

func (a *app) cyclePattern(dir int) {
	var name string
	if dir > 0 {
		name = pattern.Next(a.patternName())
	} else {
		name = pattern.Prev(a.patternName())
	}
	p, err := pattern.New(name, a.seed)
	if err != nil {
		a.logger.Error("pattern switch failed", "pattern", name, "error", err)
		return
	}
	a.sched.SetPattern(p)
	a.hud.ShowToast("pattern: " + name)
	a.hud.Refresh()
}

func (a *app) showFPS(fps int) {
	a.hud.ShowToast(fmt.Sprintf("%d fps", fps))
	a.hud.Refresh()
}

func (a *app) patternName() string {
	if p := a.sched.Pattern(); p != nil {
		return p.Name()
	}
	return ""
}

func (a *app) themeName() string {
	if th := a.sched.Theme(); th != nil {
		return th.Name()
	}
	return ""
}

// applyReload folds a changed config file into the running program.
// Only pattern, theme and fps take effect live; terminal-level settings
// need a restart.
func (a *app) applyReload(next *config.Config) {
	changed := false

	if next.FPS != a.sched.FPS() {
		a.sched.SetFPS(next.FPS)
		changed = true
	}
	if next.Theme != a.themeName() {
		if th, err := theme.Get(next.Theme); err == nil {
			a.sched.SetTheme(th)
			changed = true
		}
	}
	if next.Pattern != a.patternName() {
		if p, err := pattern.New(next.Pattern, a.seed); err == nil {
			a.sched.SetPattern(p)
			changed = true
		}
	}

	if changed {
		a.hud.ShowToast("config reloaded")
		a.hud.Refresh()
	}
}

// hudSource adapts the scheduler and monitor to the HUD's read
// interface.
type hudSource struct {
	sched *engine.Scheduler
	mon   *telemetry.Monitor
}

func (s *hudSource) Stats() telemetry.Stats { return s.mon.Stats() }
func (s *hudSource) FPS() int               { return s.sched.FPS() }
func (s *hudSource) Paused() bool           { return s.sched.Paused() }

func (s *hudSource) PatternName() string {
	if p := s.sched.Pattern(); p != nil {
		return p.Name()
	}
	return ""
}

func (s *hudSource) ThemeName() string {
	if th := s.sched.Theme(); th != nil {
		return th.Name()
	}
	return ""
}

func (s *hudSource) PresetName() string {
	if pp, ok := s.sched.Pattern().(pattern.PresetProvider); ok {
		return pp.Preset()
	}
	return ""
}
