package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/fluxel/pattern"
	"github.com/lixenwraith/fluxel/theme"
)

// version is stamped by the build; "dev" for plain go build
var version = "dev"

const swatchWidth = 24

func runList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tVARIANTS")
	for _, name := range pattern.Names() {
		p, err := pattern.New(name, 1)
		if err != nil {
			return err
		}
		variants := "-"
		if pp, ok := p.(pattern.PresetProvider); ok {
			variants = strings.Join(pp.Presets(), ", ")
		}
		fmt.Fprintf(w, "%s\t%s\n", name, variants)
	}
	return w.Flush()
}

func runThemes(cmd *cobra.Command, args []string) error {
	for _, name := range theme.Names() {
		th, err := theme.Get(name)
		if err != nil {
			return err
		}
		var sb strings.Builder
		for i := range swatchWidth {
			c := th.At(float64(i) / float64(swatchWidth-1))
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)))
			sb.WriteString(style.Render("█"))
		}
		fmt.Printf("%-8s %s\n", name, sb.String())
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println("fluxel", version)
}
