package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/LuyGGG/MonoMind/pkg/tone"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
)

var (
	mintGreen  = lipgloss.Color("#A8E6CF")
	salmonPink = lipgloss.Color("#FFB3BA")
	mutedGray  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Width(10)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)
)

// writeDocument renders doc to -out, or to stdout, and optionally to the
// clipboard.
func writeDocument(doc *dom.Document, cli *CLIConfig, stdout io.Writer) error {
	page := doc.String()

	switch {
	case cli.Output != "" && cli.Output != "-":
		if err := os.WriteFile(cli.Output, []byte(page), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	case cli.Color:
		if err := quick.Highlight(stdout, page, "html", "terminal256", "monokai"); err != nil {
			return fmt.Errorf("failed to highlight output: %w", err)
		}
		fmt.Fprintln(stdout)
	default:
		if _, err := io.WriteString(stdout, page); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if cli.Copy {
		if err := clipboard.WriteAll(page); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}
	return nil
}

// summary renders the apply result for the terminal.
func summary(result tone.ApplyResult, stats tone.StatsResult, backend string, elapsed time.Duration) string {
	title := titleStyle.Render("Tone softened")
	if !result.OK {
		title = failStyle.Render("Tone not applied: " + result.Error)
	}

	rows := []string{
		title,
		row("backend", backend),
		row("scanned", fmt.Sprint(result.Scanned)),
		row("changed", fmt.Sprint(result.Changed)),
	}
	if result.Failed > 0 {
		rows = append(rows, row("failed", failStyle.Render(fmt.Sprint(result.Failed))))
	}
	rows = append(rows,
		row("cached", fmt.Sprint(stats.Cached)),
		row("elapsed", elapsed.Round(time.Millisecond).String()),
	)

	return boxStyle.Render(strings.Join(rows, "\n"))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}
