package memory

import (
	"context"
	"sync"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type FingerprintRepository struct {
	sets map[models.FingerprintKey]map[string]struct{}
	mu   sync.RWMutex
}

func NewFingerprintRepository() *FingerprintRepository {
	return &FingerprintRepository{
		sets: make(map[models.FingerprintKey]map[string]struct{}),
	}
}

func (r *FingerprintRepository) GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, exists := r.sets[key]
	if !exists {
		return map[string]struct{}{}, nil
	}

	result := make(map[string]struct{}, len(set))
	for fp := range set {
		result[fp] = struct{}{}
	}

	return result, nil
}

func (r *FingerprintRepository) AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, exists := r.sets[key]
	if !exists {
		set = make(map[string]struct{})
		r.sets[key] = set
	}

	for _, fp := range fingerprints {
		set[fp] = struct{}{}
	}

	return nil
}

func (r *FingerprintRepository) DeleteSet(ctx context.Context, key models.FingerprintKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sets, key)

	return nil
}
