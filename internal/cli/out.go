package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/output"
)

// out is a helper for CLI output that ignores write errors.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// valueOr returns v, or fallback when v is empty.
func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// formatterFor returns a formatter in the context's format that writes to
// the command's output stream.
func formatterFor(cmd *cobra.Command, cc *CommandContext) *output.Formatter {
	format := output.FormatText
	if cc.Fmt != nil {
		format = cc.Fmt.Format()
	}
	return output.NewFormatter(format, cmd.OutOrStdout())
}
