package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

type runRow struct {
	ID             uuid.UUID `db:"id"`
	SourceName     string    `db:"source_name"`
	PageCount      int       `db:"page_count"`
	Boundaries     []byte    `db:"boundaries"`
	RuleBasedCount int       `db:"rule_based_count"`
	APICount       int       `db:"api_count"`
	FallbackCount  int       `db:"fallback_count"`
	CreatedAt      time.Time `db:"created_at"`
}

type sectionRow struct {
	RunID           uuid.UUID `db:"run_id"`
	Position        int       `db:"position"`
	StartPage       int       `db:"start_page"`
	EndPage         int       `db:"end_page"`
	DocumentType    string    `db:"document_type"`
	Confidence      float64   `db:"confidence"`
	Method          string    `db:"method"`
	ExtractedFields []byte    `db:"extracted_fields"`
	Filename        string    `db:"filename"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func toSectionRow(runID uuid.UUID, pos int, s *domain.DocumentSection, now time.Time) (sectionRow, error) {
	fields := s.ExtractedFields
	if fields == nil {
		fields = map[string]string{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return sectionRow{}, err
	}
	return sectionRow{
		RunID:           runID,
		Position:        pos,
		StartPage:       s.StartPage,
		EndPage:         s.EndPage,
		DocumentType:    string(s.DocumentType),
		Confidence:      s.Confidence,
		Method:          string(s.Method),
		ExtractedFields: raw,
		Filename:        s.Filename,
		UpdatedAt:       now,
	}, nil
}

func (r runRow) toDomain() (domain.SplitRun, error) {
	run := domain.SplitRun{
		ID:         r.ID,
		SourceName: r.SourceName,
		PageCount:  r.PageCount,
		Methods: domain.MethodCounts{
			RuleBased: r.RuleBasedCount,
			API:       r.APICount,
			Fallback:  r.FallbackCount,
		},
		CreatedAt: r.CreatedAt,
	}
	if len(r.Boundaries) > 0 {
		if err := json.Unmarshal(r.Boundaries, &run.Boundaries); err != nil {
			return run, fmt.Errorf("decoding boundaries: %w", err)
		}
	}
	return run, nil
}

func (r sectionRow) toDomain() (domain.DocumentSection, error) {
	s := domain.DocumentSection{
		StartPage:    r.StartPage,
		EndPage:      r.EndPage,
		DocumentType: domain.DocumentType(r.DocumentType),
		Confidence:   r.Confidence,
		Method:       domain.ClassificationMethod(r.Method),
		Filename:     r.Filename,
	}
	if len(r.ExtractedFields) > 0 {
		if err := json.Unmarshal(r.ExtractedFields, &s.ExtractedFields); err != nil {
			return s, fmt.Errorf("decoding extracted fields: %w", err)
		}
	}
	return s, nil
}

type splitRunRepo struct {
	db *sqlx.DB
}

// NewSplitRunRepo creates a new PostgreSQL-backed SplitRunRepository.
func NewSplitRunRepo(db *sqlx.DB) port.SplitRunRepository {
	return &splitRunRepo{db: db}
}

func (r *splitRunRepo) Create(ctx context.Context, run *domain.SplitRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	boundaries, err := json.Marshal(run.Boundaries)
	if err != nil {
		return fmt.Errorf("splitRunRepo.Create boundaries: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("splitRunRepo.Create begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO split_runs (id, source_name, page_count, boundaries, rule_based_count, api_count, fallback_count, created_at)
		 VALUES (:id, :source_name, :page_count, :boundaries, :rule_based_count, :api_count, :fallback_count, :created_at)`,
		runRow{
			ID:             run.ID,
			SourceName:     run.SourceName,
			PageCount:      run.PageCount,
			Boundaries:     boundaries,
			RuleBasedCount: run.Methods.RuleBased,
			APICount:       run.Methods.API,
			FallbackCount:  run.Methods.Fallback,
			CreatedAt:      run.CreatedAt,
		})
	if err != nil {
		return fmt.Errorf("splitRunRepo.Create: %w", err)
	}

	if len(run.Sections) > 0 {
		rows := make([]sectionRow, len(run.Sections))
		for i := range run.Sections {
			rows[i], err = toSectionRow(run.ID, i, &run.Sections[i], run.CreatedAt)
			if err != nil {
				return fmt.Errorf("splitRunRepo.Create section %d: %w", i, err)
			}
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO split_sections (run_id, position, start_page, end_page, document_type, confidence, method, extracted_fields, filename, updated_at)
			 VALUES (:run_id, :position, :start_page, :end_page, :document_type, :confidence, :method, :extracted_fields, :filename, :updated_at)`,
			rows)
		if err != nil {
			return fmt.Errorf("splitRunRepo.Create sections: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("splitRunRepo.Create commit: %w", err)
	}
	return nil
}

func (r *splitRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM split_runs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("splitRunRepo.GetByID: %w", err)
	}
	run, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("splitRunRepo.GetByID: %w", err)
	}

	var sections []sectionRow
	err = r.db.SelectContext(ctx, &sections,
		"SELECT * FROM split_sections WHERE run_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("splitRunRepo.GetByID sections: %w", err)
	}
	run.Sections = make([]domain.DocumentSection, len(sections))
	for i := range sections {
		if run.Sections[i], err = sections[i].toDomain(); err != nil {
			return nil, fmt.Errorf("splitRunRepo.GetByID section %d: %w", i, err)
		}
	}
	return &run, nil
}

// List returns run summaries, newest first. Sections are not loaded.
func (r *splitRunRepo) List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM split_runs"); err != nil {
		return nil, 0, fmt.Errorf("splitRunRepo.List count: %w", err)
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM split_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("splitRunRepo.List: %w", err)
	}
	runs := make([]domain.SplitRun, len(rows))
	for i := range rows {
		if runs[i], err = rows[i].toDomain(); err != nil {
			return nil, 0, fmt.Errorf("splitRunRepo.List: %w", err)
		}
	}
	return runs, total, nil
}

// UpdateSection replaces the section at index and recomputes the run's
// method counts from the stored sections.
func (r *splitRunRepo) UpdateSection(ctx context.Context, runID uuid.UUID, index int, section *domain.DocumentSection) error {
	row, err := toSectionRow(runID, index, section, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("splitRunRepo.UpdateSection: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("splitRunRepo.UpdateSection begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.NamedExecContext(ctx,
		`UPDATE split_sections SET document_type = :document_type, confidence = :confidence, method = :method,
		 extracted_fields = :extracted_fields, filename = :filename, updated_at = :updated_at
		 WHERE run_id = :run_id AND position = :position`,
		row)
	if err != nil {
		return fmt.Errorf("splitRunRepo.UpdateSection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE split_runs SET
		   rule_based_count = (SELECT COUNT(*) FROM split_sections WHERE run_id = $1 AND method = 'rule_based'),
		   api_count        = (SELECT COUNT(*) FROM split_sections WHERE run_id = $1 AND method = 'api'),
		   fallback_count   = (SELECT COUNT(*) FROM split_sections WHERE run_id = $1 AND method = 'fallback')
		 WHERE id = $1`,
		runID)
	if err != nil {
		return fmt.Errorf("splitRunRepo.UpdateSection counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("splitRunRepo.UpdateSection commit: %w", err)
	}
	return nil
}

func (r *splitRunRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM split_runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("splitRunRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
