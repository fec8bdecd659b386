// Package dashboard assembles the per-event views shown by the CLI and the
// HTTP dashboard from an explicit Session.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
)

var (
	// ErrNoEvents means the selected folder has no events table.
	ErrNoEvents = errors.New("events.csv not found in the data folder")
	// ErrUnknownEvent means the requested folder is not under the data root.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNoSelection means no event folder has been selected yet.
	ErrNoSelection = errors.New("no event selected")
)

// Session is the state of one dashboard user: the data root and the event
// folder currently selected with its loaded tables.
type Session struct {
	ID       uuid.UUID         `json:"id"`
	Root     string            `json:"root"`
	Selected dataset.Folder    `json:"selected"`
	Datasets dataset.Datasets  `json:"-"`
	Warnings []dataset.Warning `json:"warnings,omitempty"`
}

// NewSession starts an empty session over root.
func NewSession(root string) *Session {
	return &Session{ID: uuid.New(), Root: root}
}

// Events lists the event folders under the session root.
func (s *Session) Events() ([]dataset.Folder, error) {
	return dataset.ListAvailableEvents(s.Root)
}

// Select loads the named event folder, discarding every previously loaded
// table. On error the previous selection is kept.
func (s *Session) Select(name string) error {
	events, err := s.Events()
	if err != nil {
		return err
	}
	folder, ok := lo.Find(events, func(f dataset.Folder) bool { return f.Name == name })
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	ds, warnings, err := dataset.LoadDatasetsFromFolder(folder.Path)
	if err != nil {
		return err
	}
	s.Selected = folder
	s.Datasets = ds
	s.Warnings = warnings
	log.Named("dashboard").Info("event selected",
		zap.String("session", s.ID.String()), zap.String("event", name),
		zap.Int("tables", len(ds)), zap.Int("warnings", len(warnings)))
	return nil
}

// Reload re-reads the selected folder from disk.
func (s *Session) Reload() error {
	if !s.HasSelection() {
		return ErrNoSelection
	}
	return s.Select(s.Selected.Name)
}

// HasSelection reports whether an event folder is loaded.
func (s *Session) HasSelection() bool { return s.Selected.Name != "" }

// TableRows reports the row count of every loaded table.
func (s *Session) TableRows() map[string]int {
	return lo.MapValues(s.Datasets, func(t *dataset.Table, _ string) int { return t.Len() })
}
