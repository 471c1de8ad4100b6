package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// Info logs informational messages
func Info(msg string, fields ...Field) {
	write("INFO", msg, fields...)
}

// Warn logs warning messages
func Warn(msg string, fields ...Field) {
	write("WARN", msg, fields...)
}

// Error logs error messages
func Error(msg string, fields ...Field) {
	write("ERROR", msg, fields...)
}

// Debug logs debug messages when LOG_LEVEL=debug
func Debug(msg string, fields ...Field) {
	if os.Getenv("LOG_LEVEL") == "debug" {
		write("DEBUG", msg, fields...)
	}
}

func write(level, msg string, fields ...Field) {
	if os.Getenv("LOG_FORMAT") == "json" {
		entry := map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"level":     level,
			"message":   msg,
		}
		for _, field := range fields {
			entry[field.Key] = field.Value
		}
		data, _ := json.Marshal(entry)
		log.Println(string(data))
		return
	}

	fieldStr := ""
	for _, field := range fields {
		fieldStr += fmt.Sprintf(" %s=%v", field.Key, field.Value)
	}
	log.Printf("%s: %s%s", level, msg, fieldStr)
}

// Helper functions for common field types

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Err(key string, err error) Field {
	if err == nil {
		return Field{Key: key, Value: nil}
	}
	return Field{Key: key, Value: err.Error()}
}
