package main

import (
	"fmt"
	"os"

	"github.com/lixenwraith/fluxel/engine"
	"github.com/spf13/cobra"
)

var (
	patternFlag string
	themeFlag   string
	fpsFlag     int
	colorFlag   string
	mouseFlag   bool
	noHUDFlag   bool
	configFlag  string
	watchFlag   bool
	logFileFlag string
	seedFlag    uint64
)

func main() {
	// Last-resort recovery: restore the terminal before the process dies,
	// otherwise the shell is left in raw mode with the cursor hidden.
	defer func() {
		if r := recover(); r != nil {
			engine.HandleCrash(r)
		}
	}()

	rootCmd := &cobra.Command{
		Use:           "fluxel",
		Short:         "terminal animation engine",
		Long:          "fluxel renders procedural animations in the terminal using a diff-based cell renderer.",
		RunE:          runAnimator,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVar(&patternFlag, "pattern", "", "animation pattern")
	rootCmd.Flags().StringVar(&themeFlag, "theme", "", "color theme")
	rootCmd.Flags().IntVar(&fpsFlag, "fps", 0, "target frames per second (1-120)")
	rootCmd.Flags().StringVar(&colorFlag, "color", "", "color mode: auto, truecolor or 256")
	rootCmd.Flags().BoolVar(&mouseFlag, "mouse", true, "enable mouse interaction")
	rootCmd.Flags().BoolVar(&noHUDFlag, "no-hud", false, "start with the status line hidden")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&watchFlag, "watch", false, "reload the config file on change")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "write logs to file")
	rootCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "pattern seed (0 = random)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list available patterns",
		RunE:  runList,
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "list available themes",
		RunE:  runThemes,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run:   runVersion,
	}

	rootCmd.AddCommand(listCmd, themesCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
