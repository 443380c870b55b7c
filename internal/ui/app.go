package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/sanehaakhtar/localboard/internal/interact"
	"github.com/sanehaakhtar/localboard/internal/state"
)

const appID = "io.localboard.desktop"

// App is the desktop window around one board.
type App struct {
	fyne   fyne.App
	win    fyne.Window
	board  *BoardWidget
	status *widget.Label
	log    *slog.Logger
}

// NewApp creates the application. Call Mount before Run.
func NewApp(title string, log *slog.Logger) *App {
	return newApp(app.NewWithID(appID), title, log)
}

func newApp(fa fyne.App, title string, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	win := fa.NewWindow(title)
	win.Resize(fyne.NewSize(1024, 768))
	return &App{
		fyne:   fa,
		win:    win,
		status: widget.NewLabel(""),
		log:    log.With("component", "ui"),
	}
}

// Clipboard returns the slot copied boxes are kept in. It survives restarts.
func (a *App) Clipboard() interact.Slot {
	return NewPreferencesSlot(a.fyne.Preferences())
}

// Mount puts the board into the window. shareLink, if set, is shown so the
// host can hand it to others.
func (a *App) Mount(store *state.Store, ctrl *interact.Controller, shareLink string) *BoardWidget {
	a.board = NewBoardWidget(store, ctrl)
	store.OnChange(func() {
		fyne.Do(a.board.Refresh)
	})

	top := container.NewVBox(NewToolbar(a.board, ctrl, func() { a.showExport(store) }), a.status)
	if shareLink != "" {
		link := widget.NewEntry()
		link.SetText(shareLink)
		top.Add(container.NewBorder(nil, nil, widget.NewLabel("Share:"), nil, link))
	}
	a.win.SetContent(container.NewBorder(top, nil, nil, nil, a.board))
	a.win.SetOnClosed(ctrl.Close)
	return a.board
}

// SetStatus may be called from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// Run shows the window and blocks until it is closed.
func (a *App) Run() {
	a.win.ShowAndRun()
}

// Quit closes the application from any goroutine.
func (a *App) Quit() {
	fyne.Do(a.fyne.Quit)
}
