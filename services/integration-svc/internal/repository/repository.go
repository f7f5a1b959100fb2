// Package repository история прогонов оценщиков
package repository

import (
	"context"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

// Ограничения выборки списка
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// ListFilter фильтры и страница списка прогонов
type ListFilter struct {
	Integrand string
	Method    api.Method
	Tags      []string // прогон подходит, если есть хотя бы один тег
	Limit     int
	Offset    int
}

// normalize приводит Limit к допустимым значениям
func (f *ListFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// RunRepository хранилище прогонов
type RunRepository interface {
	// Save сохраняет прогон; пустой ID и CreatedAt заполняются
	Save(ctx context.Context, run *api.Run) error
	// SaveBatch сохраняет прогоны атомарно
	SaveBatch(ctx context.Context, runs []*api.Run) error
	Get(ctx context.Context, id string) (*api.Run, error)
	// GetMany прогоны в порядке ids; отсутствующий ID - ошибка NOT_FOUND
	GetMany(ctx context.Context, ids []string) ([]*api.Run, error)
	// List прогоны от новых к старым и общее количество по фильтру
	List(ctx context.Context, filter ListFilter) ([]*api.Run, int64, error)
	Delete(ctx context.Context, id string) error
}

func errRunNotFound(id string) error {
	return apperror.Newf(apperror.CodeNotFound, "run %s not found", id).WithField("id")
}
