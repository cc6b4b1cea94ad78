//go:build windows

package notify

import (
	"os"

	"golang.org/x/sys/windows"
)

// New returns the platform notifier: a modal error message box.
func New(appName string) Notifier {
	return &messageBoxNotifier{appName: appName}
}

type messageBoxNotifier struct {
	appName string
}

func (n *messageBoxNotifier) NotifyFatal(err error) {
	text, terr := windows.UTF16PtrFromString(DialogText(n.appName, err))
	caption, cerr := windows.UTF16PtrFromString(Title(n.appName))
	if terr == nil && cerr == nil {
		if _, mberr := windows.MessageBox(0, text, caption, windows.MB_OK|windows.MB_ICONERROR); mberr == nil {
			return
		}
	}
	// Strings with NUL bytes, or no window station: fall back to stderr.
	(&StderrNotifier{AppName: n.appName, Out: os.Stderr}).NotifyFatal(err)
}
