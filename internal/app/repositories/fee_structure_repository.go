package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/db"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/dberrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
)

var feeStructureColumns = []string{"id", "session_year", "class", "fees", "installments", "created_at", "updated_at"}

// FeeStructureRepository stores fee templates. Lines and installments live in JSONB columns.
type FeeStructureRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewFeeStructureRepository creates a new FeeStructureRepository
func NewFeeStructureRepository(conn db.DBTX) *FeeStructureRepository {
	return &FeeStructureRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanFeeStructure(row pgx.Row) (*models.FeeStructure, error) {
	var fs models.FeeStructure
	var fees, installments []byte
	if err := row.Scan(&fs.ID, &fs.SessionYear, &fs.Class, &fees, &installments, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFeeStructureNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(fees, &fs.Fees); err != nil {
		return nil, fmt.Errorf("decode fees: %w", err)
	}
	if err := json.Unmarshal(installments, &fs.Installments); err != nil {
		return nil, fmt.Errorf("decode installments: %w", err)
	}
	return &fs, nil
}

func encodeFeeStructure(fs *models.FeeStructure) ([]byte, []byte, error) {
	lines := fs.Fees
	if lines == nil {
		lines = []models.FeeLine{}
	}
	inst := fs.Installments
	if inst == nil {
		inst = []models.Installment{}
	}
	fees, err := json.Marshal(lines)
	if err != nil {
		return nil, nil, err
	}
	installments, err := json.Marshal(inst)
	if err != nil {
		return nil, nil, err
	}
	return fees, installments, nil
}

func mapFeeStructureWriteError(err error) error {
	if dberrors.IsDuplicateConstraintError(err, dberrors.FeeStructuresYearClass) {
		return apperrors.ErrFeeStructureExists
	}
	return err
}

// Create inserts a fee structure
func (r *FeeStructureRepository) Create(ctx context.Context, fs *models.FeeStructure) error {
	fees, installments, err := encodeFeeStructure(fs)
	if err != nil {
		return fmt.Errorf("encode fee structure: %w", err)
	}
	sql, args, err := r.sb.Insert("fee_structures").
		Columns("session_year", "class", "fees", "installments").
		Values(fs.SessionYear, fs.Class, string(fees), string(installments)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create fee structure SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&fs.ID, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
		if mapped := mapFeeStructureWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("sessionYear", fs.SessionYear).Str("class", fs.Class).Msg("Error creating fee structure")
		return fmt.Errorf("error creating fee structure: %w", err)
	}
	return nil
}

// GetByID retrieves a fee structure
func (r *FeeStructureRepository) GetByID(ctx context.Context, id int64) (*models.FeeStructure, error) {
	sql, args, err := r.sb.Select(feeStructureColumns...).From("fee_structures").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get fee structure SQL")
		return nil, err
	}
	return scanFeeStructure(r.db.QueryRow(ctx, sql, args...))
}

// GetForClass retrieves the structure of a class. An empty sessionYear
// selects the latest session year on record for that class.
func (r *FeeStructureRepository) GetForClass(ctx context.Context, sessionYear, class string) (*models.FeeStructure, error) {
	q := r.sb.Select(feeStructureColumns...).From("fee_structures").Where(squirrel.Eq{"class": class})
	if sessionYear != "" {
		q = q.Where(squirrel.Eq{"session_year": sessionYear})
	} else {
		q = q.OrderBy("session_year DESC").Limit(1)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get fee structure for class SQL")
		return nil, err
	}
	return scanFeeStructure(r.db.QueryRow(ctx, sql, args...))
}

// List returns structures filtered by session year and class
func (r *FeeStructureRepository) List(ctx context.Context, sessionYear, class string) ([]*models.FeeStructure, error) {
	q := r.sb.Select(feeStructureColumns...).From("fee_structures")
	if sessionYear != "" {
		q = q.Where(squirrel.Eq{"session_year": sessionYear})
	}
	if class != "" {
		q = q.Where(squirrel.Eq{"class": class})
	}
	sql, args, err := q.OrderBy("session_year DESC", "class").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list fee structures SQL")
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing fee structures: %w", err)
	}
	defer rows.Close()

	out := make([]*models.FeeStructure, 0)
	for rows.Next() {
		fs, err := scanFeeStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// Update replaces every field of a structure
func (r *FeeStructureRepository) Update(ctx context.Context, fs *models.FeeStructure) error {
	fees, installments, err := encodeFeeStructure(fs)
	if err != nil {
		return fmt.Errorf("encode fee structure: %w", err)
	}
	sql, args, err := r.sb.Update("fee_structures").
		Set("session_year", fs.SessionYear).
		Set("class", fs.Class).
		Set("fees", string(fees)).
		Set("installments", string(installments)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": fs.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update fee structure SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&fs.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrFeeStructureNotFound
		}
		if mapped := mapFeeStructureWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Int64("id", fs.ID).Msg("Error updating fee structure")
		return fmt.Errorf("error updating fee structure: %w", err)
	}
	return nil
}

// Delete removes a structure
func (r *FeeStructureRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fee_structures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting fee structure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFeeStructureNotFound
	}
	return nil
}

// Count returns the number of structures
func (r *FeeStructureRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fee_structures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting fee structures: %w", err)
	}
	return n, nil
}
