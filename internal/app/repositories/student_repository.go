package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/db"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/dberrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
)

// Writable columns in the order studentValues returns them
var studentWriteColumns = []string{
	"student_id", "roll_no", "govt_provided_id", "first_name", "middle_name", "last_name",
	"father_first_name", "father_last_name", "father_mobile",
	"mother_first_name", "mother_last_name", "mother_mobile",
	"parent_id", "parent_relation",
	"gender", "date_of_birth", "category", "community", "nationality", "blood_group",
	"email", "mobile", "address",
	"admission_year", "current_study_class", "current_section", "medium",
	"concession_percentage", "concession_reason",
}

var studentColumns = append(append([]string{"id"}, studentWriteColumns...), "created_at", "updated_at")

func studentValues(s *models.Student) []interface{} {
	return []interface{}{
		s.StudentID, s.RollNo, s.GovtProvidedID, s.FirstName, s.MiddleName, s.LastName,
		s.FatherFirstName, s.FatherLastName, s.FatherMobile,
		s.MotherFirstName, s.MotherLastName, s.MotherMobile,
		s.ParentID, s.ParentRelation,
		s.Gender, s.DateOfBirth, s.Category, s.Community, s.Nationality, s.BloodGroup,
		s.Email, s.Mobile, s.Address,
		s.AdmissionYear, s.CurrentStudyClass, s.CurrentSection, s.Medium,
		s.ConcessionPercentage, s.ConcessionReason,
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(
		&s.ID,
		&s.StudentID, &s.RollNo, &s.GovtProvidedID, &s.FirstName, &s.MiddleName, &s.LastName,
		&s.FatherFirstName, &s.FatherLastName, &s.FatherMobile,
		&s.MotherFirstName, &s.MotherLastName, &s.MotherMobile,
		&s.ParentID, &s.ParentRelation,
		&s.Gender, &s.DateOfBirth, &s.Category, &s.Community, &s.Nationality, &s.BloodGroup,
		&s.Email, &s.Mobile, &s.Address,
		&s.AdmissionYear, &s.CurrentStudyClass, &s.CurrentSection, &s.Medium,
		&s.ConcessionPercentage, &s.ConcessionReason,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, err
	}
	return &s, nil
}

func mapStudentWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, dberrors.StudentsRollNoKey):
		return apperrors.ErrRollNumberTaken
	case dberrors.IsDuplicateConstraintError(err, dberrors.StudentsStudentIDKey):
		return apperrors.ErrStudentIDAlreadyExists
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrResourceAlreadyExists
	}
	return err
}

// StudentRepository handles database operations for students
type StudentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(conn db.DBTX) *StudentRepository {
	return &StudentRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *StudentRepository) WithTx(tx pgx.Tx) *StudentRepository {
	return &StudentRepository{db: tx, sb: r.sb}
}

// Create inserts a student. The roll-number unique index is the authority
// on collisions; it surfaces as ErrRollNumberTaken.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns(studentWriteColumns...).
		Values(studentValues(s)...).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if mapped := mapStudentWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("studentID", s.StudentID).Msg("Error creating student")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// GetByStudentID retrieves a student by the school-assigned id
func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").
		Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student SQL")
		return nil, err
	}
	return scanStudent(r.db.QueryRow(ctx, sql, args...))
}

// Exists reports whether a student id is present
func (r *StudentRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1)`, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking student existence: %w", err)
	}
	return exists, nil
}

func studentFilterClause(f models.StudentFilter) squirrel.And {
	where := squirrel.And{}
	if f.Class != "" {
		where = append(where, squirrel.Eq{"current_study_class": f.Class})
	}
	if f.Section != "" {
		where = append(where, squirrel.Eq{"current_section": f.Section})
	}
	if f.AdmissionYear != 0 {
		where = append(where, squirrel.Eq{"admission_year": f.AdmissionYear})
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"first_name": like},
			squirrel.ILike{"last_name": like},
			squirrel.ILike{"student_id": like},
			squirrel.Expr("(first_name || ' ' || last_name) ILIKE ?", like),
		})
	}
	return where
}

// List returns a filtered page of students and the total match count
func (r *StudentRepository) List(ctx context.Context, f models.StudentFilter, page, size int) ([]*models.Student, int64, error) {
	where := studentFilterClause(f)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("students").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count students SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).
		OrderBy("current_study_class", "current_section", "roll_no").
		Limit(uint64(size)).Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, 0, err
	}
	students, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListByClass returns every student currently in a class, by roll number
func (r *StudentRepository) ListByClass(ctx context.Context, class string) ([]*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").
		Where(squirrel.Eq{"current_study_class": class}).
		OrderBy("current_section", "roll_no").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students by class SQL")
		return nil, err
	}
	return r.query(ctx, sql, args...)
}

// GetByStudentIDs loads the given students keyed by student id
func (r *StudentRepository) GetByStudentIDs(ctx context.Context, ids []string) (map[string]*models.Student, error) {
	out := make(map[string]*models.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sql, args, err := r.sb.Select(studentColumns...).From("students").
		Where(squirrel.Eq{"student_id": ids}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get students SQL")
		return nil, err
	}
	students, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	for _, s := range students {
		out[s.StudentID] = s
	}
	return out, nil
}

func (r *StudentRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*models.Student, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying students")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// RollNoTaken reports whether a roll number is used in a class, section and
// admission year, ignoring excludeStudentID. It is advisory only.
func (r *StudentRepository) RollNoTaken(ctx context.Context, class, section string, year int, rollNo, excludeStudentID string) (bool, error) {
	where := squirrel.And{
		squirrel.Eq{"current_study_class": class},
		squirrel.Eq{"current_section": section},
		squirrel.Eq{"admission_year": year},
		squirrel.Eq{"roll_no": rollNo},
	}
	if excludeStudentID != "" {
		where = append(where, squirrel.NotEq{"student_id": excludeStudentID})
	}
	sub, args, err := r.sb.Select("1").From("students").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building roll number check SQL")
		return false, err
	}

	var taken bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS("+sub+")", args...).Scan(&taken); err != nil {
		return false, fmt.Errorf("error checking roll number: %w", err)
	}
	return taken, nil
}

// Update replaces all writable fields of the student identified by s.StudentID
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	values := studentValues(s)
	q := r.sb.Update("students")
	// student_id is the key, not a writable field here
	for i, col := range studentWriteColumns[1:] {
		q = q.Set(col, values[i+1])
	}
	sql, args, err := q.Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"student_id": s.StudentID}).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update student SQL")
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrStudentNotFound
		}
		if mapped := mapStudentWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Str("studentID", s.StudentID).Msg("Error updating student")
		return fmt.Errorf("error updating student: %w", err)
	}
	return nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		logger.Error().Err(err).Str("studentID", studentID).Msg("Error deleting student")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
