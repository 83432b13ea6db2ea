package cmd

import (
	"fmt"
	"io"
	"os"
	"time"
)

// OutputWriter is where command summaries are written
type OutputWriter = io.Writer

// DefaultOutput is the default output writer for commands
var DefaultOutput OutputWriter = os.Stdout

// formatDuration formats a duration as "Xm Ys" or "Ys"
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
