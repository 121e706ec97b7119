package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is one structured key/value attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

// AddTo writes the field with the zerolog encoder matching its type.
func (f Field) AddTo(e *zerolog.Event) {
	switch v := f.Value.(type) {
	case string:
		e.Str(f.Key, v)
	case int:
		e.Int(f.Key, v)
	case int64:
		e.Int64(f.Key, v)
	case float64:
		e.Float64(f.Key, v)
	case bool:
		e.Bool(f.Key, v)
	case error:
		e.AnErr(f.Key, v)
	default:
		e.Interface(f.Key, v)
	}
}

// GetKeyValue returns the value in a JSON friendly form for the collector.
func (f Field) GetKeyValue() (string, interface{}) {
	if err, ok := f.Value.(error); ok {
		return f.Key, err.Error()
	}
	return f.Key, f.Value
}

func String(key, value string) Field { return Field{key, value} }

func Int(key string, value int) Field { return Field{key, value} }

func Int64(key string, value int64) Field { return Field{key, value} }

func Float64(key string, value float64) Field { return Field{key, value} }

func Bool(key string, value bool) Field { return Field{key, value} }

func Any(key string, value interface{}) Field { return Field{key, value} }

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{key, int(value / time.Millisecond)}
}

// Error logs err under "error". A nil error logs null.
func Error(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err}
}
