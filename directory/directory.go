// Package directory keeps an in-memory snapshot of the hospital directory for the
// assessment path. The snapshot is replaced wholesale on refresh and never mutated.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/models"
)

// ErrUnavailable is returned when no snapshot could be loaded yet
var ErrUnavailable = errors.New("hospital directory unavailable")

// Directory is the read side of the hospital directory
type Directory interface {
	// FindCandidates returns every hospital the ranker should consider
	FindCandidates(ctx context.Context) ([]models.Hospital, error)
}

// Snapshot is a Directory backed by a periodically refreshed copy of the hospitals
// collection.
type Snapshot struct {
	db databases.HospitalDatabase

	mu        sync.RWMutex
	hospitals []models.Hospital
	loadedAt  time.Time
}

// NewSnapshot creates an empty snapshot. Call Refresh to load it.
func NewSnapshot(db databases.HospitalDatabase) *Snapshot {
	return &Snapshot{db: db}
}

// Refresh reloads the snapshot from the database. A failed refresh keeps the previous
// snapshot in place.
func (s *Snapshot) Refresh(ctx context.Context) error {
	// password hashes never enter the snapshot
	opts := options.Find().SetProjection(bson.M{"password": 0})
	hospitals, err := s.db.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to load hospitals: %w", err)
	}

	valid := make([]models.Hospital, 0, len(hospitals))
	for _, h := range hospitals {
		if err := h.Location.Validate(); err != nil {
			zap.S().Warnw("skipping hospital with invalid location",
				"hospital", h.Name,
				"id", h.ID.Hex(),
				"error", err)
			continue
		}
		valid = append(valid, h)
	}

	s.mu.Lock()
	s.hospitals = valid
	s.loadedAt = time.Now()
	s.mu.Unlock()

	zap.S().Infow("hospital directory refreshed", "hospitals", len(valid))
	return nil
}

// FindCandidates implements the Directory interface. The returned slice is shared and
// must not be modified.
func (s *Snapshot) FindCandidates(ctx context.Context) ([]models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadedAt.IsZero() {
		return nil, ErrUnavailable
	}
	return s.hospitals, nil
}

// LoadedAt returns when the snapshot was last refreshed, or the zero time
func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Static is a fixed Directory, used by the seed tooling and tests
type Static []models.Hospital

// FindCandidates implements the Directory interface
func (d Static) FindCandidates(ctx context.Context) ([]models.Hospital, error) {
	return d, nil
}
