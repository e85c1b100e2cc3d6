package workspace

import (
	"fmt"
	"sync"

	"github.com/drummonds/pdfmanager/database"
)

// Settings holds the Settings tab toggles and writes every change through to the database
type Settings struct {
	db database.Repository

	mu      sync.Mutex
	current database.Settings
}

// NewSettings loads the stored settings, or the defaults on a fresh database
func NewSettings(db database.Repository) *Settings {
	return &Settings{db: db, current: database.FetchSettings(db)}
}

func (s *Settings) Get() database.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update stores next; the in-memory copy only changes once the write succeeds
func (s *Settings) Update(next database.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.SaveSettings(&next); err != nil {
		return fmt.Errorf("unable to save settings: %w", err)
	}
	s.current = next
	return nil
}

func (s *Settings) SetDarkMode(on bool) error {
	next := s.Get()
	next.DarkMode = on
	return s.Update(next)
}

func (s *Settings) SetNotifications(on bool) error {
	next := s.Get()
	next.Notifications = on
	return s.Update(next)
}

// Notifications reports whether background job results should raise toasts
func (s *Settings) Notifications() bool {
	return s.Get().Notifications
}
