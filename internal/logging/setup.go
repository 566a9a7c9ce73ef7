// Package logging builds the process-wide *slog.Logger, grounded on the
// teacher's infra/initializer/setuplogger.go: a charmbracelet/log backend
// styled with lipgloss, exposed through the standard slog facade so the
// rest of the codebase never imports charmbracelet directly.
package logging

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/northbank/ledgercore/pkg/config"
	"log/slog"
)

// New builds a styled slog.Logger from the given Log config.
func New(cfg *config.Log) *slog.Logger {
	styles := log.DefaultStyles()
	infoColor := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnColor := lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugColor := lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERR").Bold(true).Padding(0, 1).Foreground(errorColor)
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INF").Bold(true).Padding(0, 1).Foreground(infoColor)
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WRN").Bold(true).Padding(0, 1).Foreground(warnColor)
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DBG").Bold(true).Padding(0, 1).Foreground(debugColor)

	formatters := map[string]log.Formatter{
		"json": log.JSONFormatter,
		"text": log.TextFormatter,
	}
	formatter := log.TextFormatter
	if f, ok := formatters[cfg.Format]; ok {
		formatter = f
	}

	backend := log.NewWithOptions(os.Stdout, log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	backend.SetStyles(styles)

	logger := slog.New(backend)
	slog.SetDefault(logger)
	return logger
}
