package logger

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is one structured key/value pair.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

// field pairs a typed zerolog writer with the plain value handed to the collector.
type field struct {
	key   string
	value interface{}
	add   func(e *zerolog.Event)
}

func (f field) AddTo(e *zerolog.Event)             { f.add(e) }
func (f field) GetKeyValue() (string, interface{}) { return f.key, f.value }

func String(key, value string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Int(key string, value int) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration logs whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int(key, int(value/time.Millisecond))
}

func Time(key string, value time.Time) Field {
	return field{key, value.Format(time.RFC3339), func(e *zerolog.Event) { e.Time(key, value) }}
}

func Any(key string, value interface{}) Field {
	return field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}

// Error logs err under "error"; a nil error collects as "".
func Error(err error) Field {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return field{"error", msg, func(e *zerolog.Event) { e.Err(err) }}
}
