package telegram

import "sync"

type chatPrefs struct {
	place  string
	engine string
}

// chatState remembers the last place and chosen model per chat.
type chatState struct {
	mu    sync.RWMutex
	chats map[int64]chatPrefs
}

func newChatState() *chatState {
	return &chatState{chats: make(map[int64]chatPrefs)}
}

func (s *chatState) place(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats[id].place
}

func (s *chatState) engine(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats[id].engine
}

func (s *chatState) setPlace(id int64, place string) {
	s.mu.Lock()
	p := s.chats[id]
	p.place = place
	s.chats[id] = p
	s.mu.Unlock()
}

func (s *chatState) setEngine(id int64, engine string) {
	s.mu.Lock()
	p := s.chats[id]
	p.engine = engine
	s.chats[id] = p
	s.mu.Unlock()
}
