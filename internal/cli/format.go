package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// printSection prints a section header
func printSection(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n\n", title)
}

// printLabelValue prints an aligned label and value
func printLabelValue(w io.Writer, label, value string) {
	_, _ = labelColor.Fprintf(w, "  %-14s", label+":")
	_, _ = fmt.Fprintf(w, " %s\n", value)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

// printEmptyState prints a dimmed placeholder
func printEmptyState(w io.Writer, msg string) {
	_, _ = dimColor.Fprintf(w, "  (%s)\n", msg)
}

func outputJSON(w io.Writer, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
