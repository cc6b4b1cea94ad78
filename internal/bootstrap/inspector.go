package bootstrap

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Akaiko1/nfo-viewer/internal/config"
	"github.com/Akaiko1/nfo-viewer/internal/host"
	"github.com/Akaiko1/nfo-viewer/internal/invocation"
	"github.com/Akaiko1/nfo-viewer/internal/logging"
)

type inspectorState struct {
	args    invocation.Arguments
	logPath string
	tail    *logging.Ring
}

// openInspector shows the developer window next to the main window.
func openInspector(h *host.Handle, state inspectorState) fyne.Window {
	w := h.App().NewWindow(config.AppName + " inspector")

	logPath := state.logPath
	if logPath == "" {
		logPath = "(stderr only)"
	}

	info := widget.NewForm(
		widget.NewFormItem("Arguments", widget.NewLabel(strings.Join(state.args.Values(), "\n"))),
		widget.NewFormItem("Plugins", widget.NewLabel(strings.Join(h.PluginNames(), ", "))),
		widget.NewFormItem("Commands", widget.NewLabel(strings.Join(h.CommandNames(), ", "))),
		widget.NewFormItem("Log file", widget.NewLabel(logPath)),
	)

	tail := widget.NewTextGrid()
	refresh := func() {
		if state.tail == nil {
			return
		}
		tail.SetText(strings.Join(state.tail.Lines(), "\n"))
	}
	refresh()

	refreshBtn := widget.NewButtonWithIcon("Refresh log", theme.ViewRefreshIcon(), refresh)
	header := container.NewVBox(info, refreshBtn)

	w.SetContent(container.NewBorder(header, nil, nil, nil, container.NewScroll(tail)))
	w.Resize(fyne.NewSize(640, 480))
	w.Show()
	return w
}
