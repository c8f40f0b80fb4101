// Package log provides the run report and diagnostic logging for nightlyprep.
// The report records every promotion and field edit and can be rendered as
// JSON, CSV or a text summary, so a CI job can archive what was changed.
package log

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"nightlyprep/internal/config"
	"nightlyprep/internal/errors"
	"nightlyprep/internal/promote"
	"nightlyprep/internal/rewrite"
)

// Step names used in report entries.
const (
	StepPromotion = "promotion"
	StepRewrite   = "rewrite"
)

// Entry represents a single operation of the run.
type Entry struct {
	Timestamp  string         `json:"timestamp"`
	Step       string         `json:"step"`
	Path       string         `json:"path"`
	Source     string         `json:"source,omitempty"`
	Applied    bool           `json:"applied"`
	Edits      []rewrite.Edit `json:"edits,omitempty"`
	BackupPath string         `json:"backup_path,omitempty"`
	Warning    string         `json:"warning,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Summary provides aggregate statistics for the run.
type Summary struct {
	Directory      string        `json:"directory"`
	Promotions     int           `json:"promotions"`
	Edits          int           `json:"edits"`
	ErrorCount     int           `json:"error_count"`
	FailedStep     string        `json:"failed_step,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	DryRun         bool          `json:"dry_run"`
}

// Logger collects report entries and writes the final report.
type Logger struct {
	config  *config.Config
	writer  io.Writer
	entries []Entry
	summary Summary
	now     func() time.Time
}

// NewLogger creates a Logger writing to the configured log file on fsys,
// or stdout.
func NewLogger(fsys afero.Fs, cfg *config.Config) (*Logger, error) {
	var writer io.Writer = os.Stdout

	if cfg.LogFile != "" {
		file, err := fsys.Create(cfg.LogFile)
		if err != nil {
			return nil, errors.WrapFileOpError(cfg.LogFile, errors.OpWrite, err)
		}
		writer = file
	}

	return NewLoggerWithWriter(cfg, writer), nil
}

// NewLoggerWithWriter creates a Logger writing to w.
func NewLoggerWithWriter(cfg *config.Config, w io.Writer) *Logger {
	return &Logger{
		config:  cfg,
		writer:  w,
		entries: []Entry{},
		summary: Summary{
			Directory: cfg.Directory,
			DryRun:    cfg.DryRun,
		},
		now: time.Now,
	}
}

// LogPromotion records one promotion result.
func (l *Logger) LogPromotion(result promote.Result) {
	entry := Entry{
		Timestamp: l.timestamp(),
		Step:      StepPromotion,
		Path:      result.Current,
		Source:    result.Release,
		Applied:   result.Applied,
	}
	if result.Applied || l.config.DryRun {
		l.summary.Promotions++
	}
	l.add(entry)
}

// LogRewrite records the plugin configuration rewrite.
func (l *Logger) LogRewrite(result *rewrite.Result, backupPath string, applied bool) {
	entry := Entry{
		Timestamp:  l.timestamp(),
		Step:       StepRewrite,
		Path:       result.Path,
		Applied:    applied,
		Edits:      result.Edits,
		BackupPath: backupPath,
	}
	if result.AlreadySuffixed {
		entry.Warning = "version already carried the suffix; it was appended again"
	}
	l.summary.Edits += len(result.Edits)
	l.add(entry)
}

// LogError records the failure of a step.
func (l *Logger) LogError(step, path string, err error) {
	if pe, ok := errors.AsPrepError(err); ok {
		if step == "" {
			step = pe.Step()
		}
		if path == "" {
			path = pe.Path
		}
	}
	l.summary.ErrorCount++
	if l.summary.FailedStep == "" {
		l.summary.FailedStep = step
	}
	l.add(Entry{
		Timestamp: l.timestamp(),
		Step:      step,
		Path:      path,
		Error:     err.Error(),
	})
}

// SetProcessingTime records the total run duration.
func (l *Logger) SetProcessingTime(duration time.Duration) {
	l.summary.ProcessingTime = duration
}

// Entries returns the recorded entries.
func (l *Logger) Entries() []Entry {
	return l.entries
}

// Summary returns the aggregate statistics.
func (l *Logger) Summary() Summary {
	return l.summary
}

// WriteReport renders the report in the configured format.
func (l *Logger) WriteReport() error {
	if !l.config.ShouldLog() {
		return nil
	}

	switch l.config.LogFormat {
	case config.LogFormatJSON:
		return l.writeJSONReport()
	case config.LogFormatCSV:
		return l.writeCSVReport()
	default:
		return l.writeSummaryReport()
	}
}

func (l *Logger) add(entry Entry) {
	l.entries = append(l.entries, entry)
	if l.config.IsVerbose() {
		l.logVerbose(entry)
	}
}

func (l *Logger) timestamp() string {
	return l.now().Format(time.RFC3339)
}

func (l *Logger) logVerbose(entry Entry) {
	if entry.Error != "" {
		fmt.Fprintf(l.writer, "ERROR: %s - %s\n", entry.Path, entry.Error)
		return
	}

	verb := "PLANNED"
	if entry.Applied {
		verb = "DONE"
	}

	switch entry.Step {
	case StepPromotion:
		fmt.Fprintf(l.writer, "%s: promote %s -> %s\n", verb, entry.Source, entry.Path)
	case StepRewrite:
		fmt.Fprintf(l.writer, "%s: rewrite %s (%d edits)\n", verb, entry.Path, len(entry.Edits))
		if l.config.IsDebug() {
			for _, edit := range entry.Edits {
				fmt.Fprintf(l.writer, "  Line %d:%d: %s '%s' -> '%s'\n",
					edit.Line, edit.Column, edit.Field, edit.From, edit.To)
			}
		}
		if entry.Warning != "" {
			fmt.Fprintf(l.writer, "WARNING: %s\n", entry.Warning)
		}
	}
}

func (l *Logger) writeJSONReport() error {
	report := struct {
		Summary Summary `json:"summary"`
		Entries []Entry `json:"entries"`
	}{
		Summary: l.summary,
		Entries: l.entries,
	}

	encoder := json.NewEncoder(l.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (l *Logger) writeCSVReport() error {
	writer := csv.NewWriter(l.writer)

	header := []string{"step", "path", "source", "field", "old_value", "new_value", "line", "column", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range l.entries {
		if len(entry.Edits) == 0 {
			record := []string{entry.Step, entry.Path, entry.Source, "", "", "", "", "", entry.Error}
			if err := writer.Write(record); err != nil {
				return err
			}
			continue
		}
		for _, edit := range entry.Edits {
			record := []string{
				entry.Step,
				entry.Path,
				entry.Source,
				edit.Field,
				edit.From,
				edit.To,
				strconv.Itoa(edit.Line),
				strconv.Itoa(edit.Column),
				entry.Error,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	// Statistics go after the records as comment lines.
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	fmt.Fprintf(l.writer, "# Nightly prep CSV Report (%s)\n", l.mode())
	fmt.Fprintf(l.writer, "# Promotions: %d\n", l.summary.Promotions)
	fmt.Fprintf(l.writer, "# Field edits: %d\n", l.summary.Edits)
	fmt.Fprintf(l.writer, "# Errors: %d\n", l.summary.ErrorCount)
	fmt.Fprintf(l.writer, "# Processing time: %v\n", l.summary.ProcessingTime)

	return nil
}

func (l *Logger) writeSummaryReport() error {
	fmt.Fprintf(l.writer, "\n=== Nightly Prep Summary (%s) ===\n", l.mode())
	fmt.Fprintf(l.writer, "Directory: %s\n", l.summary.Directory)
	fmt.Fprintf(l.writer, "Promotions: %d\n", l.summary.Promotions)
	fmt.Fprintf(l.writer, "Field edits: %d\n", l.summary.Edits)
	fmt.Fprintf(l.writer, "Errors: %d\n", l.summary.ErrorCount)
	fmt.Fprintf(l.writer, "Processing time: %v\n", l.summary.ProcessingTime)

	if l.summary.ErrorCount > 0 {
		fmt.Fprintf(l.writer, "\nFailed step: %s\n", l.summary.FailedStep)
		for _, entry := range l.entries {
			if entry.Error != "" {
				fmt.Fprintf(l.writer, "  %s: %s\n", entry.Path, entry.Error)
			}
		}
	}

	return nil
}

func (l *Logger) mode() string {
	if l.summary.DryRun {
		return "dry-run"
	}
	return "applied"
}

// Close releases the log file, if any. os.Stdout is never closed.
func (l *Logger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok && l.writer != os.Stdout {
		return closer.Close()
	}
	return nil
}
