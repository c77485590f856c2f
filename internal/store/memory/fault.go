package memory

import (
	"errors"

	"github.com/dmitrijs2005/maintlog/internal/store"
)

var errWipeInjected = errors.New("injected wipe failure")

// FailWipeAt makes subsequent Wipe calls fail when they reach c. Pass ""
// to clear.
func (s *Store) FailWipeAt(c store.Collection) {
	s.mu.Lock()
	s.failWipe = c
	s.mu.Unlock()
}
