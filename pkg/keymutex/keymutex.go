package keymutex

import (
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex сериализует работу по строковому ключу. Используется для
// изоляции read-modify-write по одному источнику или одному набору
// отпечатков: без этого два конкурентных задания молча теряли бы
// обновления друг друга.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{
		locks: make(map[string]*entry),
	}
}

func (m *KeyMutex) Lock(key string) {
	m.mu.Lock()

	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}

	e.refs++

	m.mu.Unlock()

	e.mu.Lock()
}

func (m *KeyMutex) Unlock(key string) {
	m.mu.Lock()

	e, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		return
	}

	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}

	m.mu.Unlock()

	e.mu.Unlock()
}

// WithLock выполняет fn под замком ключа key.
func (m *KeyMutex) WithLock(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)

	return fn()
}
