package repository

import (
	"context"
	"sort"
	"sync"

	"loan-intake/internal/models"
)

// Memory is a process-local Repository.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*models.Application
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*models.Application)}
}

func (m *Memory) FindByID(_ context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return app.Clone(), nil
}

func (m *Memory) Upsert(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[app.ID] = app.Clone()
	return nil
}

// LoadAll returns records in creation order.
func (m *Memory) LoadAll(_ context.Context) ([]*models.Application, error) {
	m.mu.RLock()
	out := make([]*models.Application, 0, len(m.records))
	for _, app := range m.records {
		out = append(out, app.Clone())
	}
	m.mu.RUnlock()

	sortByCreation(out)
	return out, nil
}

func sortByCreation(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
}
