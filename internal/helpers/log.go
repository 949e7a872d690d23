package helpers

import (
	"fmt"
	"log"
)

type Logger interface {
	Println(v ...any)
	Printf(format string, v ...any)
	Print(v ...any)
}

type _defaultLogger struct {
}

func (l *_defaultLogger) Println(v ...any) {
	log.Println(v...)
}
func (l *_defaultLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}
func (l *_defaultLogger) Print(v ...any) {
	log.Print(v...)
}

var DefaultLogger = _defaultLogger{}

type _silentLogger struct {
}

func (l *_silentLogger) Println(v ...any) {
}
func (l *_silentLogger) Printf(format string, v ...any) {
}
func (l *_silentLogger) Print(v ...any) {
}

var SilentLogger = _silentLogger{}

// FuncLogger forwards log lines to a callback. The websocket server uses it
// to mirror engine logs onto the connection.
type FuncLogger struct {
	Callback func(message string)
}

func (l *FuncLogger) Println(v ...any) {
	l.Callback(fmt.Sprintln(v...))
}
func (l *FuncLogger) Printf(format string, v ...any) {
	l.Callback(fmt.Sprintf(format, v...))
}
func (l *FuncLogger) Print(v ...any) {
	l.Callback(fmt.Sprint(v...))
}
