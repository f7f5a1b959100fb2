package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

func seedMemory(t *testing.T, repo *MemoryRunRepository) []*api.Run {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	runs := []*api.Run{
		{Integrand: "benchmark", Method: api.MethodUniform, Tags: []string{"bench"}, CreatedAt: base},
		{Integrand: "benchmark", Method: api.MethodImportance, Tags: []string{"bench", "night"}, CreatedAt: base.Add(time.Minute)},
		{Integrand: "sin", Method: api.MethodUniform, CreatedAt: base.Add(2 * time.Minute)},
	}
	require.NoError(t, repo.SaveBatch(context.Background(), runs))
	return runs
}

func TestMemoryRunRepository_SaveGet(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	c := 0.5
	run := &api.Run{Integrand: "linear", Method: api.MethodControlVariable, Coefficient: &c, Seed: []uint32{1, 2}}
	require.NoError(t, repo.Save(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	// хранилище держит копию
	got.Seed[0] = 99
	*got.Coefficient = 7
	again, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), again.Seed[0])
	assert.Equal(t, 0.5, *again.Coefficient)
}

func TestMemoryRunRepository_GetMissing(t *testing.T) {
	repo := NewMemoryRunRepository()

	_, err := repo.Get(context.Background(), "nope")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "id", appErr.Field)
}

func TestMemoryRunRepository_GetMany(t *testing.T) {
	repo := NewMemoryRunRepository()
	runs := seedMemory(t, repo)
	ctx := context.Background()

	got, err := repo.GetMany(ctx, []string{runs[2].ID, runs[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, runs[2].ID, got[0].ID)
	assert.Equal(t, runs[0].ID, got[1].ID)

	_, err = repo.GetMany(ctx, []string{runs[0].ID, "missing"})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestMemoryRunRepository_List(t *testing.T) {
	repo := NewMemoryRunRepository()
	runs := seedMemory(t, repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
		total  int64
	}{
		{"all newest first", ListFilter{}, []string{runs[2].ID, runs[1].ID, runs[0].ID}, 3},
		{"by integrand", ListFilter{Integrand: "benchmark"}, []string{runs[1].ID, runs[0].ID}, 2},
		{"by method", ListFilter{Method: api.MethodUniform}, []string{runs[2].ID, runs[0].ID}, 2},
		{"by tag", ListFilter{Tags: []string{"night", "other"}}, []string{runs[1].ID}, 1},
		{"page", ListFilter{Limit: 1, Offset: 1}, []string{runs[1].ID}, 3},
		{"past end", ListFilter{Offset: 10}, []string{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryRunRepository_Delete(t *testing.T) {
	repo := NewMemoryRunRepository()
	runs := seedMemory(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, runs[0].ID))
	_, err := repo.Get(ctx, runs[0].ID)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	err = repo.Delete(ctx, runs[0].ID)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 5000, Offset: -3}
	f.normalize()
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Zero(t, f.Offset)

	f = ListFilter{}
	f.normalize()
	assert.Equal(t, DefaultLimit, f.Limit)
}
