package logger

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
	WarnLogger  *log.Logger

	debugEnabled atomic.Bool
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)

	debugEnabled.Store(os.Getenv("ENVIRONMENT") == "development")
}

// SetDebug overrides the ENVIRONMENT based default picked up at init.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

func Info(format string, v ...interface{}) {
	InfoLogger.Output(2, fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if debugEnabled.Load() {
		DebugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Output(2, fmt.Sprintf(format, v...))
}

// Session prefixes a line with the session and user it belongs to.
func Session(sessionID, user, format string, v ...interface{}) string {
	if user == "" {
		user = "-"
	}
	return fmt.Sprintf("[session=%s user=%s] %s", sessionID, user, fmt.Sprintf(format, v...))
}

func LogAPIFailure(api string, err error) {
	Warn("Content API failure: api=%s, error=%v", api, err)
}
