package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

var _ glog.Logger = (*consoleLogger)(nil)

// consoleLogger writes level-prefixed lines to stdout. It keeps the
// daemon free of a logging backend dependency while still speaking the
// glog.Logger contract the rest of the module is built on.
type consoleLogger struct {
	name string
	out  *log.Logger
}

func newConsoleLogger(name string) *consoleLogger {
	return &consoleLogger{
		name: strings.TrimSpace(name),
		out:  log.New(os.Stdout, "", log.LstdFlags|log.LUTC),
	}
}

func (l *consoleLogger) Trace(msg string, args ...any) { l.emit("TRACE", msg, args...) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.emit("DEBUG", msg, args...) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.emit("INFO", msg, args...) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.emit("WARN", msg, args...) }
func (l *consoleLogger) Error(msg string, args ...any) { l.emit("ERROR", msg, args...) }

func (l *consoleLogger) Fatal(msg string, args ...any) {
	l.emit("FATAL", msg, args...)
	os.Exit(1)
}

func (l *consoleLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *consoleLogger) emit(level string, msg string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := fmt.Sprintf("%-5s %s %s", level, l.name, msg)
	if len(args) > 0 {
		pairs := make([]string, 0, (len(args)+1)/2)
		for index := 0; index+1 < len(args); index += 2 {
			pairs = append(pairs, fmt.Sprintf("%v=%v", args[index], args[index+1]))
		}
		if len(args)%2 != 0 {
			pairs = append(pairs, fmt.Sprintf("%v", args[len(args)-1]))
		}
		line = line + " " + strings.Join(pairs, " ")
	}
	l.out.Println(line)
}
