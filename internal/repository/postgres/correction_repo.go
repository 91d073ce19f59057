package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

type totalRow struct {
	DocumentType string    `db:"document_type"`
	Total        int       `db:"total"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type correctionRow struct {
	RunID         uuid.UUID `db:"run_id"`
	Position      int       `db:"position"`
	OriginalType  string    `db:"original_type"`
	CorrectedType string    `db:"corrected_type"`
	Confidence    float64   `db:"confidence"`
	CreatedAt     time.Time `db:"created_at"`
}

type correctionCountRow struct {
	OriginalType  string `db:"original_type"`
	CorrectedType string `db:"corrected_type"`
	Count         int    `db:"count"`
}

// toTotalRows drops non-positive counts and orders rows by type so concurrent
// upserts lock rows in the same order.
func toTotalRows(counts map[domain.DocumentType]int, now time.Time) []totalRow {
	rows := make([]totalRow, 0, len(counts))
	for dt, n := range counts {
		if n > 0 {
			rows = append(rows, totalRow{DocumentType: string(dt), Total: n, UpdatedAt: now})
		}
	}
	slices.SortFunc(rows, func(a, b totalRow) int { return cmp.Compare(a.DocumentType, b.DocumentType) })
	return rows
}

func toCorrectionRow(c *domain.Correction) correctionRow {
	return correctionRow{
		RunID:         c.RunID,
		Position:      c.SectionIndex,
		OriginalType:  string(c.OriginalType),
		CorrectedType: string(c.CorrectedType),
		Confidence:    c.Confidence,
		CreatedAt:     c.CreatedAt,
	}
}

func (r correctionCountRow) toDomain() domain.CorrectionCount {
	return domain.CorrectionCount{
		Original:  domain.DocumentType(r.OriginalType),
		Corrected: domain.DocumentType(r.CorrectedType),
		Count:     r.Count,
	}
}

type correctionRepo struct {
	db *sqlx.DB
}

// NewCorrectionRepo creates a new PostgreSQL-backed CorrectionRepository.
func NewCorrectionRepo(db *sqlx.DB) port.CorrectionRepository {
	return &correctionRepo{db: db}
}

func (r *correctionRepo) RecordClassifications(ctx context.Context, counts map[domain.DocumentType]int) error {
	rows := toTotalRows(counts, time.Now().UTC())
	if len(rows) == 0 {
		return nil
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO classification_totals (document_type, total, updated_at)
		 VALUES (:document_type, :total, :updated_at)
		 ON CONFLICT (document_type) DO UPDATE
		 SET total = classification_totals.total + EXCLUDED.total, updated_at = EXCLUDED.updated_at`,
		rows)
	if err != nil {
		return fmt.Errorf("correctionRepo.RecordClassifications: %w", err)
	}
	return nil
}

func (r *correctionRepo) RecordCorrection(ctx context.Context, c *domain.Correction) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO section_corrections (run_id, position, original_type, corrected_type, confidence, created_at)
		 VALUES (:run_id, :position, :original_type, :corrected_type, :confidence, :created_at)`,
		toCorrectionRow(c))
	if err != nil {
		return fmt.Errorf("correctionRepo.RecordCorrection: %w", err)
	}
	return nil
}

func (r *correctionRepo) Totals(ctx context.Context) (map[domain.DocumentType]int, error) {
	var rows []totalRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM classification_totals"); err != nil {
		return nil, fmt.Errorf("correctionRepo.Totals: %w", err)
	}
	totals := make(map[domain.DocumentType]int, len(rows))
	for _, row := range rows {
		totals[domain.DocumentType(row.DocumentType)] = row.Total
	}
	return totals, nil
}

func (r *correctionRepo) CorrectionCounts(ctx context.Context) ([]domain.CorrectionCount, error) {
	var rows []correctionCountRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT original_type, corrected_type, COUNT(*) AS count
		 FROM section_corrections
		 GROUP BY original_type, corrected_type
		 ORDER BY original_type, count DESC`)
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.CorrectionCounts: %w", err)
	}
	counts := make([]domain.CorrectionCount, len(rows))
	for i := range rows {
		counts[i] = rows[i].toDomain()
	}
	return counts, nil
}
