package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/sanehaakhtar/localboard/internal/export"
	"github.com/sanehaakhtar/localboard/internal/state"
)

func (a *App) showExport(store *state.Store) {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.win)
			return
		}
		if w == nil {
			return
		}
		path := w.URI().Path()
		// gofpdf writes by path.
		_ = w.Close()
		if err := export.PDF(path, store.Boxes()); err != nil {
			a.log.Error("pdf export failed", "path", path, "err", err)
			dialog.ShowError(err, a.win)
			return
		}
		a.log.Info("board exported", "path", path, "boxes", store.Len())
		a.status.SetText("Exported to " + path)
	}, a.win)
	save.SetFileName("board.pdf")
	save.Show()
}
