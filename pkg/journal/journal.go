// Package journal persists completed status intervals to an append-only
// log file, one line per confirmed transition. The file is the durable
// record of the device's history; everything else the monitor prints goes
// to the console log.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gowinder/ip-online-checker/pkg/state"
)

// StampLayout is the timestamp layout used in interval lines.
const StampLayout = "20060102_150405"

// Journal appends interval lines to a log file. The file is opened per
// write in append mode, so lines survive crashes, restarts append rather
// than truncate, and rotation of the file does not wedge a stale handle.
type Journal struct {
	path   string
	logger *logrus.Logger
}

// New creates a Journal writing to path, creating parent directories as
// needed. The file is touched once so an unwritable path fails at startup
// instead of at the first transition.
func New(path string, logger *logrus.Logger) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("journal: create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("journal: close %s: %w", path, err)
	}

	return &Journal{path: path, logger: logger}, nil
}

// Path returns the log file path.
func (j *Journal) Path() string {
	return j.path
}

// Record appends the interval line for one confirmed transition. Write
// failures are logged and swallowed so the monitor keeps observing even
// without its journal.
func (j *Journal) Record(ev state.Event) {
	if err := j.append(FormatInterval(ev)); err != nil {
		j.logger.Errorf("journal: write %s: %v", j.path, err)
	}
}

func (j *Journal) append(line string) error {
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatInterval renders one completed interval as a single log line,
// newline included:
//
//	20250713_221000->20250713_222000 [Online, 10 minutes]
//
// The status label is the state held during the interval, which for a
// transition event is the state being left.
func FormatInterval(ev state.Event) string {
	return fmt.Sprintf("%s->%s [%s, %s]\n",
		ev.StartedAt.Format(StampLayout),
		ev.EndedAt.Format(StampLayout),
		ev.From,
		FormatDuration(ev.Duration()))
}

// Stamp renders a timestamp in the interval line layout.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// FormatDuration renders a duration in plain English, omitting zero
// units: "45 seconds", "10 minutes", "1 hour 1 minute 40 seconds". The
// duration is truncated to whole seconds; negative values render as
// "0 seconds".
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}

	hours := total / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, unit(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, unit(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, unit(seconds, "second"))
	}
	return strings.Join(parts, " ")
}

func unit(n int, name string) string {
	if n == 1 {
		return "1 " + name
	}
	return fmt.Sprintf("%d %ss", n, name)
}
