package repositories

import (
	"context"
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

// AdminRepository handles admin profiles. Each profile belongs to one user row.
type AdminRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(conn db.DBTX) *AdminRepository {
	return &AdminRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *AdminRepository) WithTx(tx pgx.Tx) *AdminRepository {
	return &AdminRepository{db: tx, sb: r.sb}
}

func (r *AdminRepository) selectQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"a.id", "a.user_ref", "a.name", "a.email", "a.mobile", "a.designation", "a.created_at", "a.updated_at",
		"u.id", "u.user_id", "u.email", "u.role", "u.display_name", "u.is_active", "u.last_login_at", "u.created_at", "u.updated_at",
	).From("admins a").Join("users u ON u.id = a.user_ref")
}

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	var a models.Admin
	var u models.User
	err := row.Scan(
		&a.ID, &a.UserRef, &a.Name, &a.Email, &a.Mobile, &a.Designation, &a.CreatedAt, &a.UpdatedAt,
		&u.ID, &u.UserID, &u.Email, &u.Role, &u.DisplayName, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("admin not found")
		}
		return nil, err
	}
	a.User = &u
	return &a, nil
}

// Create inserts an admin profile
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	sql, args, err := r.sb.Insert("admins").
		Columns("user_ref", "name", "email", "mobile", "designation").
		Values(admin.UserRef, admin.Name, admin.Email, admin.Mobile, admin.Designation).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create admin SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.AdminsUserRefKey) {
			return apperrors.NewConflictError("user already has an admin profile")
		}
		logger.Error().Err(err).Int64("userRef", admin.UserRef).Msg("Error creating admin")
		return fmt.Errorf("error creating admin: %w", err)
	}
	return nil
}

// GetByID retrieves an admin with its user
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	sql, args, err := r.selectQuery().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get admin SQL")
		return nil, err
	}
	return scanAdmin(r.db.QueryRow(ctx, sql, args...))
}

// GetByUserRef retrieves the profile of a user
func (r *AdminRepository) GetByUserRef(ctx context.Context, userRef int64) (*models.Admin, error) {
	sql, args, err := r.selectQuery().Where(squirrel.Eq{"a.user_ref": userRef}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get admin SQL")
		return nil, err
	}
	return scanAdmin(r.db.QueryRow(ctx, sql, args...))
}

// List returns all admins ordered by name
func (r *AdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	sql, args, err := r.selectQuery().OrderBy("a.name").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list admins SQL")
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing admins: %w", err)
	}
	defer rows.Close()

	admins := make([]*models.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// Update writes the profile fields
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	sql, args, err := r.sb.Update("admins").
		Set("name", admin.Name).
		Set("email", admin.Email).
		Set("mobile", admin.Mobile).
		Set("designation", admin.Designation).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": admin.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update admin SQL")
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("admin not found")
	}
	return nil
}
