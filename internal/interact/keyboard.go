package interact

import (
	"encoding/json"
	"strings"

	"github.com/sanehaakhtar/localboard/internal/state"
)

// Key names the keys the board reacts to.
type Key string

const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyC         Key = "C"
	KeyV         Key = "V"
)

// HandleKey dispatches a key press and reports whether it was a board
// shortcut. Copy and paste accept either Control or Super as the modifier.
func (c *Controller) HandleKey(k Key, mods Modifier) bool {
	shortcut := mods.Has(ModControl) || mods.Has(ModSuper)
	switch {
	case k == KeyEscape:
		c.Deselect()
	case k == KeyDelete || k == KeyBackspace:
		c.DeleteSelection()
	case shortcut && strings.EqualFold(string(k), string(KeyC)):
		c.Copy()
	case shortcut && strings.EqualFold(string(k), string(KeyV)):
		c.Paste()
	default:
		return false
	}
	return true
}

func (c *Controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Clear()
}

// Copy writes the selected boxes to the clipboard slot and returns how many
// were copied. An empty selection leaves the slot untouched.
func (c *Controller) Copy() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncSelection()
	boxes := c.store.Selected(c.sel)
	if len(boxes) == 0 {
		return 0
	}
	data, err := json.Marshal(boxes)
	if err != nil {
		c.log.Warn("encode clipboard", "err", err)
		return 0
	}
	if err := c.clip.Store(string(data)); err != nil {
		c.log.Warn("write clipboard", "err", err)
		return 0
	}
	return len(boxes)
}

// Paste adds a copy of every clipboard box under a fresh identifier,
// shifted by the paste offset, and emits one add-box per box. A missing or
// unreadable clipboard pastes nothing.
func (c *Controller) Paste() []state.Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.clip.Load()
	if err != nil || data == "" {
		return nil
	}
	var copied []state.Box
	if err := json.Unmarshal([]byte(data), &copied); err != nil {
		c.log.Debug("ignoring unreadable clipboard", "err", err)
		return nil
	}
	pasted := make([]state.Box, 0, len(copied))
	for _, b := range copied {
		b.ID = state.UniqueID(c.ids, c.store.Has)
		b.X += c.opts.PasteOffset
		b.Y += c.opts.PasteOffset
		c.store.ApplyLocalCreate(b)
		pasted = append(pasted, b)
	}
	return pasted
}

// DeleteSelection removes the selected boxes, clears the selection and
// returns the removed IDs, which go out as one delete-boxes.
func (c *Controller) DeleteSelection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncSelection()
	if c.sel.Len() == 0 {
		return nil
	}
	removed := c.store.ApplyLocalDelete(c.sel.IDs())
	c.sel.Clear()
	return removed
}
