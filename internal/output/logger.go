// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Structured diagnostic logger

package output

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a logr.Logger writing key/value lines to w.
// When verbose is false the logger discards everything.
func NewLogger(w io.Writer, verbose bool) logr.Logger {
	if !verbose {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{
		LogTimestamp:    true,
		TimestampFormat: "15:04:05.000",
		Verbosity:       1,
	}).WithName("bdsetup")
}
