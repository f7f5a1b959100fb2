package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/database"
	"montecarlo/pkg/telemetry"
)

const runColumns = `
	id, integrand, method, policy, lower_bound, upper_bound,
	estimate, std_dev, half_width, samples, elapsed_ms, reference,
	coefficient, seed, tags, confidence_level, created_at`

const insertRunQuery = `
	INSERT INTO runs (` + runColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

// PostgresRunRepository PostgreSQL реализация
type PostgresRunRepository struct {
	db database.DB
}

// NewPostgresRunRepository создаёт репозиторий поверх пула
func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// prepare заполняет ID и время создания
func prepare(run *api.Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

func insertArgs(run *api.Run) []any {
	seed := make([]int64, len(run.Seed))
	for i, s := range run.Seed {
		seed[i] = int64(s)
	}
	tags := run.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		run.ID,
		run.Integrand,
		string(run.Method),
		string(run.Policy),
		run.Lower,
		run.Upper,
		run.Estimate,
		run.StdDev,
		run.HalfWidth,
		int64(run.Samples),
		run.ElapsedMs,
		run.Reference,
		run.Coefficient,
		seed,
		tags,
		run.ConfidenceLevel,
		run.CreatedAt,
	}
}

func (r *PostgresRunRepository) Save(ctx context.Context, run *api.Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Save")
	defer span.End()

	prepare(run)
	if _, err := r.db.Exec(ctx, insertRunQuery, insertArgs(run)...); err != nil {
		telemetry.SetError(ctx, err)
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (r *PostgresRunRepository) SaveBatch(ctx context.Context, runs []*api.Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.SaveBatch")
	defer span.End()

	for _, run := range runs {
		prepare(run)
	}

	err := database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		for _, run := range runs {
			if _, err := tx.Exec(ctx, insertRunQuery, insertArgs(run)...); err != nil {
				return fmt.Errorf("failed to save run %s: %w", run.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.SetError(ctx, err)
	}
	return err
}

func (r *PostgresRunRepository) Get(ctx context.Context, id string) (*api.Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Get")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, errRunNotFound(id)
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errRunNotFound(id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *PostgresRunRepository) GetMany(ctx context.Context, ids []string) ([]*api.Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.GetMany")
	defer span.End()

	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, errRunNotFound(id)
		}
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*api.Run, len(ids))
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		byID[run.ID] = run
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	runs := make([]*api.Run, 0, len(ids))
	for _, id := range ids {
		run, ok := byID[id]
		if !ok {
			return nil, errRunNotFound(id)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *PostgresRunRepository) List(ctx context.Context, filter ListFilter) ([]*api.Run, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.List")
	defer span.End()

	filter.normalize()
	where, args := buildWhereClause(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM runs` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM runs%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		runColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*api.Run, 0, filter.Limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return runs, total, nil
}

func (r *PostgresRunRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return errRunNotFound(id)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errRunNotFound(id)
	}
	return nil
}

// buildWhereClause возвращает " WHERE ..." или пустую строку
func buildWhereClause(f ListFilter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if f.Integrand != "" {
		conditions = append(conditions, fmt.Sprintf("integrand = $%d", argIdx))
		args = append(args, f.Integrand)
		argIdx++
	}

	if f.Method != "" {
		conditions = append(conditions, fmt.Sprintf("method = $%d", argIdx))
		args = append(args, string(f.Method))
		argIdx++
	}

	if len(f.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("tags && $%d", argIdx))
		args = append(args, pq.Array(f.Tags))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRun(row pgx.Row) (*api.Run, error) {
	var (
		run     api.Run
		method  string
		policy  string
		samples int64
		seed    []int64
		tags    pgtype.Array[string]
	)

	err := row.Scan(
		&run.ID,
		&run.Integrand,
		&method,
		&policy,
		&run.Lower,
		&run.Upper,
		&run.Estimate,
		&run.StdDev,
		&run.HalfWidth,
		&samples,
		&run.ElapsedMs,
		&run.Reference,
		&run.Coefficient,
		&seed,
		&tags,
		&run.ConfidenceLevel,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Method = api.Method(method)
	run.Policy = api.Policy(policy)
	if samples < 0 {
		return nil, apperror.Newf(apperror.CodeInternal, "run %s has negative sample count", run.ID)
	}
	run.Samples = uint64(samples)
	if len(seed) > 0 {
		run.Seed = make([]uint32, len(seed))
		for i, s := range seed {
			run.Seed[i] = uint32(s)
		}
	}
	run.Tags = tags.Elements

	return &run, nil
}
