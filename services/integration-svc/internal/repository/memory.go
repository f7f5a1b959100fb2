package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"montecarlo/pkg/api"
)

// MemoryRunRepository история в памяти процесса
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*api.Run
}

// NewMemoryRunRepository создаёт пустое хранилище
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*api.Run)}
}

func (r *MemoryRunRepository) Save(_ context.Context, run *api.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store(run)
	return nil
}

func (r *MemoryRunRepository) SaveBatch(_ context.Context, runs []*api.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, run := range runs {
		r.store(run)
	}
	return nil
}

// store вызывается под r.mu
func (r *MemoryRunRepository) store(run *api.Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	r.runs[run.ID] = cloneRun(run)
}

func (r *MemoryRunRepository) Get(_ context.Context, id string) (*api.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, errRunNotFound(id)
	}
	return cloneRun(run), nil
}

func (r *MemoryRunRepository) GetMany(ctx context.Context, ids []string) ([]*api.Run, error) {
	runs := make([]*api.Run, 0, len(ids))
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *MemoryRunRepository) List(_ context.Context, filter ListFilter) ([]*api.Run, int64, error) {
	filter.normalize()

	r.mu.RLock()
	matched := make([]*api.Run, 0, len(r.runs))
	for _, run := range r.runs {
		if matches(run, filter) {
			matched = append(matched, run)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*api.Run{}, total, nil
	}
	end := min(filter.Offset+filter.Limit, len(matched))

	page := make([]*api.Run, 0, end-filter.Offset)
	for _, run := range matched[filter.Offset:end] {
		page = append(page, cloneRun(run))
	}
	return page, total, nil
}

func (r *MemoryRunRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[id]; !ok {
		return errRunNotFound(id)
	}
	delete(r.runs, id)
	return nil
}

func matches(run *api.Run, f ListFilter) bool {
	if f.Integrand != "" && run.Integrand != f.Integrand {
		return false
	}
	if f.Method != "" && run.Method != f.Method {
		return false
	}
	if len(f.Tags) > 0 {
		for _, tag := range f.Tags {
			if slices.Contains(run.Tags, tag) {
				return true
			}
		}
		return false
	}
	return true
}

func cloneRun(run *api.Run) *api.Run {
	c := *run
	c.Seed = slices.Clone(run.Seed)
	c.Tags = slices.Clone(run.Tags)
	if run.Coefficient != nil {
		v := *run.Coefficient
		c.Coefficient = &v
	}
	return &c
}
