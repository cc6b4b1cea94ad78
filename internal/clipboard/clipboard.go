package clipboard

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
)

// Copier defines the interface for putting document text on the clipboard.
type Copier interface {
	Copy(text string) error
}

// FyneCopier implements Copier using the toolkit clipboard.
type FyneCopier struct {
	clipboard fyne.Clipboard
}

// NewFyneCopier creates a new FyneCopier.
func NewFyneCopier(clipboard fyne.Clipboard) *FyneCopier {
	return &FyneCopier{clipboard: clipboard}
}

// Copy replaces the clipboard content. Line endings are converted to the
// platform convention the toolkit expects (plain \n).
func (c *FyneCopier) Copy(text string) error {
	if c.clipboard == nil {
		return fmt.Errorf("clipboard is not available")
	}
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	c.clipboard.SetContent(strings.ReplaceAll(text, "\r\n", "\n"))
	return nil
}
