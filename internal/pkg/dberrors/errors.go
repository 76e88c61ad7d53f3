package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names declared in migrations/. Repositories match on them to
// pick the right sentinel for a unique violation.
const (
	UsersUserIDKey          = "users_user_id_key"
	UsersEmailKey           = "users_email_key"
	StudentsStudentIDKey    = "students_student_id_key"
	StudentsRollNoKey       = "students_roll_no_class_section_year_key"
	FeeStructuresYearClass  = "fee_structures_session_year_class_key"
	TransactionsReceiptKey  = "transactions_receipt_id_key"
	AdminsUserRefKey        = "admins_user_ref_key"
	ExamMarksExamStudentSub = "exam_marks_exam_student_subject_key"
)

const uniqueViolation = "23505"

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports a unique violation on any constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ConstraintName returns the violated constraint, or "" for non-Postgres errors.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
