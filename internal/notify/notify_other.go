//go:build !windows

package notify

import "os"

// New returns the platform notifier: a line on standard error.
func New(appName string) Notifier {
	return &StderrNotifier{AppName: appName, Out: os.Stderr}
}
