package ui

import (
	"fyne.io/fyne/v2"
)

// ClipboardKey is the preference key copied boxes are stored under.
const ClipboardKey = "copiedBoxes"

// PreferencesSlot keeps the board clipboard in the app's preferences.
type PreferencesSlot struct {
	prefs fyne.Preferences
}

func NewPreferencesSlot(prefs fyne.Preferences) *PreferencesSlot {
	return &PreferencesSlot{prefs: prefs}
}

func (s *PreferencesSlot) Load() (string, error) {
	return s.prefs.String(ClipboardKey), nil
}

func (s *PreferencesSlot) Store(data string) error {
	s.prefs.SetString(ClipboardKey, data)
	return nil
}
