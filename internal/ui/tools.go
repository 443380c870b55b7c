package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/sanehaakhtar/localboard/internal/interact"
)

func NewToolbar(board *BoardWidget, ctrl *interact.Controller, onExport func()) fyne.CanvasObject {
	return widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), board.AddBox),
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() {
			ctrl.Copy()
		}),
		widget.NewToolbarAction(theme.ContentPasteIcon(), func() {
			ctrl.Paste()
			board.Refresh()
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			ctrl.DeleteSelection()
			board.Refresh()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)
}
