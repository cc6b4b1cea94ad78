// Package notify tells the user that the application could not start.
//
// Windows builds show a modal message box because release binaries have no
// console; every other platform writes one line to standard error.
package notify

import (
	"fmt"
	"io"
	"os"
)

// Notifier presents a fatal startup error to the user.
type Notifier interface {
	NotifyFatal(err error)
}

// Title returns the message box title for appName.
func Title(appName string) string {
	return appName + " Error"
}

// DialogText returns the message box body.
func DialogText(appName string, err error) string {
	return fmt.Sprintf("%s failed to start:\n%v", appName, err)
}

// LineText returns the standard error line, without the trailing newline.
func LineText(appName string, err error) string {
	return fmt.Sprintf("%s failed to start: %v", appName, err)
}

// StderrNotifier writes a single line to Out (os.Stderr when nil).
type StderrNotifier struct {
	AppName string
	Out     io.Writer
}

// NotifyFatal implements Notifier.
func (n *StderrNotifier) NotifyFatal(err error) {
	out := n.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, LineText(n.AppName, err))
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

// NotifyFatal implements Notifier.
func (f NotifierFunc) NotifyFatal(err error) {
	f(err)
}
