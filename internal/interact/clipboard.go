package interact

import "sync"

// Slot is the process-wide clipboard the copy and paste shortcuts share.
// Desktop clients back it with storage that outlives the process.
type Slot interface {
	Load() (string, error)
	Store(data string) error
}

// MemorySlot keeps the clipboard in memory.
type MemorySlot struct {
	mu   sync.Mutex
	data string
}

func (m *MemorySlot) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

func (m *MemorySlot) Store(data string) error {
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}
