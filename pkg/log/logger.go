package log

import (
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	consoleTimeFormat = "15:04:05"

	// Only the first stack line is needed: "goroutine 123 [running]:".
	minStackBufSize = 32
	// Minimum stack length that can hold a goroutine ID.
	minStackTraceLen = 12
	// Length of the "goroutine " prefix.
	goroutinePrefixLen = 10
)

var (
	// Logger is the root logger. Its output and level are switched in place,
	// so loggers derived from it (see For) follow SetOutput and SetLevel.
	Logger zerolog.Logger

	output        = &switchWriter{}
	goroutinePool sync.Pool
)

// switchWriter serializes writes to a replaceable destination.
type switchWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *switchWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

func (w *switchWriter) set(out io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out = out
}

func init() {
	goroutinePool.New = func() interface{} {
		return make([]byte, minStackBufSize)
	}

	output.set(consoleWriter(os.Stderr))
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
			e.Str("goid", goroutineID())
		}))

	log.Logger = Logger
}

// consoleWriter renders human-readable lines, coloured only on a terminal stream.
func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: consoleTimeFormat,
		NoColor:    out != os.Stderr && out != os.Stdout,
	}
}

// goroutineID parses the current goroutine ID from a pooled stack buffer.
func goroutineID() string {
	buf, ok := goroutinePool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer goroutinePool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen < minStackTraceLen {
		return "unknown"
	}

	idx := goroutinePrefixLen
	start := idx
	for idx < stackLen && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}

	if idx > start {
		return string(buf[start:idx])
	}
	return "unknown"
}

// For returns a child logger tagged with the given component name.
// It keeps following later SetOutput and SetLevel calls.
func For(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warning level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal event; Msg exits the process.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	SetLevel(zerolog.DebugLevel)
}

// SetLevel changes the minimum level of every logger in the process.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// Level returns the current minimum level.
func Level() zerolog.Level {
	return zerolog.GlobalLevel()
}

// SetOutput redirects all logging to out, keeping the current level.
// Writers other than the terminal get plain, uncoloured output.
func SetOutput(out io.Writer) {
	output.set(consoleWriter(out))
}
