// =============================================================================
// FILE: internal/logging/logging.go
// ROLE: Console log construction (spec §6: console.txt, timestamped + leveled)
// =============================================================================
//
// The controller's own operational log is not one of the things spec §1
// pushes out to "console-log file formatting" as an external collaborator —
// it names the *format* as out of scope, not the library, so this still
// reaches for the same backend the rest of the corpus wires zerolog
// through (joeycumines-go-utilpkg/logiface/zerolog), minus the logiface
// facade itself: with only one process and one sink pair (file + stdout),
// the facade's pluggable-backend indirection buys nothing, so the console
// logger talks to zerolog.Logger directly.
//
// Two zerolog.ConsoleWriter sinks back one zerolog.Logger: an uncolored one
// over console.txt (spec §6's "timestamped lines with level"), and a
// colored one over stdout so an operator watching the terminal sees the
// same banner/shutdown lines rendered with github.com/fatih/color, the way
// the teacher's internal/format/colors.go colors its own terminal output.
// =============================================================================
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// New builds the console logger and opens logsDir/console.txt for it.
// The returned closer must be called before process exit to flush the
// underlying file handle.
func New(logsDir string) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(filepath.Join(logsDir, "console.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	fileWriter := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: time.RFC3339Nano,
	}

	stdoutWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    color.NoColor,
		TimeFormat: "15:04:05.000",
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(fileWriter, stdoutWriter)).
		With().
		Timestamp().
		Logger()

	return logger, f, nil
}

// Banner prints a startup/shutdown headline to stdout in bold cyan,
// mirroring the same event the caller is about to (or just did) write to
// console.txt through logger. It exists alongside the structured logger
// because a one-line colored banner reads better to an operator at the
// terminal than a zerolog record does.
func Banner(text string) {
	bold := color.New(color.FgCyan, color.Bold).SprintFunc()
	color.Output.Write([]byte(bold(text) + "\n"))
}
