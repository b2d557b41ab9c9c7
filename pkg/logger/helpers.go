package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Symbols used by status output
const (
	IconCheck = "✓"
	IconCross = "✗"
	IconDot   = "•"
	IconArrow = "->"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	keyColor     = color.New(color.FgCyan)
	sectionColor = color.New(color.FgCyan, color.Bold)
)

// Success logs a success message with a green check mark
func Success(args ...interface{}) {
	defaultLogger.Info(successColor.Sprint(IconCheck) + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Fail logs an error message with a red cross, without exiting
func Fail(args ...interface{}) {
	defaultLogger.Error(failColor.Sprint(IconCross) + " " + fmt.Sprint(args...))
}

// Failf logs a formatted failure message
func Failf(format string, args ...interface{}) {
	Fail(fmt.Sprintf(format, args...))
}

// LogSection prints a visual section separator
func LogSection(title string) {
	line := strings.Repeat("=", 50)
	fmt.Println(sectionColor.Sprint(line))
	fmt.Println(sectionColor.Sprint(title))
	fmt.Println(sectionColor.Sprint(line))
}

// LogKeyValue prints a key-value pair with aligned formatting
func LogKeyValue(key string, value interface{}) {
	fmt.Printf("%s %v\n", keyColor.Sprintf("%s:", key), value)
}
