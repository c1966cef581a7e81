package e2e

import (
	"fmt"

	"github.com/gookit/color"
)

// banner prints a section header for scenario steps, colorized when the
// config allows it.
func banner(cfg Config, format string, args ...any) {
	header := fmt.Sprintf("=== "+format+" ===", args...)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)
}
