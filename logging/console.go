package logging

import (
	"context"
	"fmt"
	"log"
	"maps"
	"os"
)

// ConsoleLogger is a leveled logger built on Go's standard log package.
// Debug/Info go to stdout (no color), Warn to stderr (yellow), Error to
// stderr (red), Fatal to stderr (bold red) followed by os.Exit(1).
type ConsoleLogger struct {
	out       *log.Logger
	errOut    *log.Logger
	level     Level
	fields    Fields
	useColors bool
}

// NewConsoleLogger creates a console logger with colors enabled when stdout
// is a terminal
func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{
		out:       log.New(os.Stdout, "", log.LstdFlags),
		errOut:    log.New(os.Stderr, "", log.LstdFlags),
		level:     InfoLevel,
		fields:    make(Fields),
		useColors: stdoutIsTerminal(),
	}
}

// NewConsoleLoggerNoColor creates a console logger with colors disabled
func NewConsoleLoggerNoColor() *ConsoleLogger {
	l := NewConsoleLogger()
	l.useColors = false
	return l
}

func stdoutIsTerminal() bool {
	if info, _ := os.Stdout.Stat(); info != nil {
		return (info.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func (c *ConsoleLogger) format(level Level, err error, msg string, fields ...Fields) string {
	merged := make(Fields)
	maps.Copy(merged, c.fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}

	line := fmt.Sprintf("[%s] %s", level.String(), msg)
	if err != nil {
		line += fmt.Sprintf(": %v", err)
	}
	if len(merged) > 0 {
		line += fmt.Sprintf(" %+v", merged)
	}

	if c.useColors {
		switch level {
		case WarnLevel:
			line = colorYellow + line + colorReset
		case ErrorLevel:
			line = colorRed + line + colorReset
		case FatalLevel:
			line = colorBold + colorRed + line + colorReset
		}
	}

	return line
}

func (c *ConsoleLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < c.level {
		return
	}

	line := c.format(level, err, msg, fields...)

	switch level {
	case DebugLevel, InfoLevel:
		c.out.Println(line)
	case WarnLevel, ErrorLevel:
		c.errOut.Println(line)
	case FatalLevel:
		c.errOut.Println(line)
		os.Exit(1)
	}
}

func (c *ConsoleLogger) Debug(msg string, fields ...Fields) {
	c.log(DebugLevel, nil, msg, fields...)
}

func (c *ConsoleLogger) Info(msg string, fields ...Fields) {
	c.log(InfoLevel, nil, msg, fields...)
}

func (c *ConsoleLogger) Warn(msg string, fields ...Fields) {
	c.log(WarnLevel, nil, msg, fields...)
}

func (c *ConsoleLogger) Error(err error, msg string, fields ...Fields) {
	c.log(ErrorLevel, err, msg, fields...)
}

func (c *ConsoleLogger) Fatal(err error, msg string, fields ...Fields) {
	c.log(FatalLevel, err, msg, fields...)
}

func (c *ConsoleLogger) WithFields(fields Fields) Logger {
	merged := make(Fields)
	maps.Copy(merged, c.fields)
	maps.Copy(merged, fields)

	return &ConsoleLogger{
		out:       c.out,
		errOut:    c.errOut,
		level:     c.level,
		fields:    merged,
		useColors: c.useColors,
	}
}

func (c *ConsoleLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return c.WithFields(fields)
	}
	return c
}

func (c *ConsoleLogger) SetLevel(level Level) {
	c.level = level
}

// NoOpLogger discards everything. Useful when the library is embedded in an
// application that handles its own diagnostics.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
