package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

var levelColors = map[string]string{
	"DBG": "\033[36m",
	"INF": "\033[32m",
	"WRN": "\033[33m",
	"ERR": "\033[31m",
}

// consoleWriter renders lines as "15:04:05 [DIA][INF] message key:value".
// The first three letters of the service name form the prefix tag.
func consoleWriter(w io.Writer, service string, noColor bool) io.Writer {
	tag := ""
	if len(service) >= 3 {
		tag = paint("["+strings.ToUpper(service[:3])+"]", ansiBlue, noColor)
	}
	return zerolog.ConsoleWriter{
		Out:           w,
		TimeFormat:    "15:04:05",
		NoColor:       noColor,
		FieldsExclude: []string{FieldService},
		FormatLevel: func(i any) string {
			lvl := shortLevel(fmt.Sprint(i))
			return tag + paint("["+lvl+"]", levelColors[lvl], noColor)
		},
		FormatFieldName: func(i any) string { return fmt.Sprint(i) + ":" },
	}
}

func shortLevel(level string) string {
	switch level {
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	}
	return strings.ToUpper(level)
}

func paint(s, color string, noColor bool) string {
	if noColor || color == "" {
		return s
	}
	return color + s + ansiReset
}
