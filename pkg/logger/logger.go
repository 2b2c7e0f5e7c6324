package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled process-wide logger used by the site API.
// Printf-style helpers (Debugf/Infof/...) plus key/value helpers (Infow/...)
// that render trailing pairs as `key=value` so submission ids, tables and
// client keys stay greppable.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
	exit               = os.Exit
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(l)
}

// SetOutput redirects log output; used by tests and by main when a log file is configured.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

func parseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

func header(l Level) string {
	return fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(l.String()))
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, msg string) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.Print(header(l) + msg)
}

func logf(l Level, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	output(l, fmt.Sprintf(format, v...))
}

// fields renders alternating key/value pairs. A dangling key is printed with
// the value "<missing>".
func fields(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 >= len(kv) {
			b.WriteString("<missing>")
			break
		}
		val := fmt.Sprint(kv[i+1])
		if strings.ContainsAny(val, " \t\n\"") {
			val = fmt.Sprintf("%q", val)
		}
		b.WriteString(val)
	}
	return b.String()
}

func logw(l Level, msg string, kv []interface{}) {
	if !enabled(l) {
		return
	}
	output(l, msg+fields(kv))
}

func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	exit(1)
}

// Debugw/Infow/Warnw/Errorw log msg followed by key/value pairs.
func Debugw(msg string, kv ...interface{}) { logw(LevelDebug, msg, kv) }
func Infow(msg string, kv ...interface{})  { logw(LevelInfo, msg, kv) }
func Warnw(msg string, kv ...interface{})  { logw(LevelWarn, msg, kv) }
func Errorw(msg string, kv ...interface{}) { logw(LevelError, msg, kv) }

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}
