// Package logging decouples the import pipeline from a concrete logging
// framework. Components receive a Logger through their constructors.
package logging

// Logger is the structured logger used across the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a derived logger carrying err.
	WithError(err error) Logger

	// WithField returns a derived logger carrying a single field.
	WithField(key string, value interface{}) Logger

	// WithFields returns a derived logger carrying all given fields.
	WithFields(fields ...Field) Logger
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return discard{}
}

type discard struct{}

func (discard) Debug(string, ...Field) {}
func (discard) Info(string, ...Field) {}
func (discard) Warn(string, ...Field) {}
func (discard) Error(string, ...Field) {}
func (d discard) WithError(error) Logger { return d }
func (d discard) WithField(string, interface{}) Logger { return d }
func (d discard) WithFields(...Field) Logger { return d }
