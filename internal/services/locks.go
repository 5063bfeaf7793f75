package services

import "sync"

// chatLocks serializes turns per chat: two concurrent turns for the same
// chat queue up, turns for different chats proceed fully in parallel.
// Lock entries are tiny and kept for the life of the process.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: map[int64]*sync.Mutex{}}
}

func (cl *chatLocks) lock(chatID int64) func() {
	cl.mu.Lock()
	m, ok := cl.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		cl.locks[chatID] = m
	}
	cl.mu.Unlock()

	m.Lock()
	return m.Unlock
}
