package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/db"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
)

var examinationColumns = []string{
	"id", "name", "class", "session_year", "exam_type", "subjects",
	"start_date", "published", "published_at", "created_at", "updated_at",
}

var examMarkColumns = []string{
	"id", "exam_id", "student_id", "subject", "marks_obtained", "max_marks", "is_absent", "remarks", "updated_at",
}

// ExaminationRepository stores examinations and their marks
type ExaminationRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewExaminationRepository creates a new ExaminationRepository
func NewExaminationRepository(conn db.DBTX) *ExaminationRepository {
	return &ExaminationRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *ExaminationRepository) WithTx(tx pgx.Tx) *ExaminationRepository {
	return &ExaminationRepository{db: tx, sb: r.sb}
}

func scanExamination(row pgx.Row) (*models.Examination, error) {
	var e models.Examination
	var subjects []byte
	err := row.Scan(
		&e.ID, &e.Name, &e.Class, &e.SessionYear, &e.ExamType, &subjects,
		&e.StartDate, &e.Published, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrExaminationNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(subjects, &e.Subjects); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	return &e, nil
}

func encodeSubjects(subjects []models.ExamSubject) (string, error) {
	if subjects == nil {
		subjects = []models.ExamSubject{}
	}
	b, err := json.Marshal(subjects)
	return string(b), err
}

// Create inserts an examination
func (r *ExaminationRepository) Create(ctx context.Context, e *models.Examination) error {
	subjects, err := encodeSubjects(e.Subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	sql, args, err := r.sb.Insert("examinations").
		Columns("name", "class", "session_year", "exam_type", "subjects", "start_date").
		Values(e.Name, e.Class, e.SessionYear, e.ExamType, subjects, e.StartDate).
		Suffix("RETURNING id, published, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create examination SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.Published, &e.CreatedAt, &e.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("class", e.Class).Msg("Error creating examination")
		return fmt.Errorf("error creating examination: %w", err)
	}
	return nil
}

// GetByID retrieves an examination
func (r *ExaminationRepository) GetByID(ctx context.Context, id int64) (*models.Examination, error) {
	sql, args, err := r.sb.Select(examinationColumns...).From("examinations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get examination SQL")
		return nil, err
	}
	return scanExamination(r.db.QueryRow(ctx, sql, args...))
}

// List returns examinations matching the filter, most recent first
func (r *ExaminationRepository) List(ctx context.Context, f models.ExamFilter) ([]*models.Examination, error) {
	q := r.sb.Select(examinationColumns...).From("examinations")
	if f.Class != "" {
		q = q.Where(squirrel.Eq{"class": f.Class})
	}
	if f.SessionYear != "" {
		q = q.Where(squirrel.Eq{"session_year": f.SessionYear})
	}
	if f.PublishedOnly {
		q = q.Where(squirrel.Eq{"published": true})
	}
	sql, args, err := q.OrderBy("session_year DESC", "start_date DESC NULLS LAST", "id DESC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list examinations SQL")
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing examinations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Examination, 0)
	for rows.Next() {
		e, err := scanExamination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update replaces the descriptive fields of an examination
func (r *ExaminationRepository) Update(ctx context.Context, e *models.Examination) error {
	subjects, err := encodeSubjects(e.Subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	sql, args, err := r.sb.Update("examinations").
		Set("name", e.Name).
		Set("class", e.Class).
		Set("session_year", e.SessionYear).
		Set("exam_type", e.ExamType).
		Set("subjects", subjects).
		Set("start_date", e.StartDate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": e.ID}).
		Suffix("RETURNING published, published_at, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update examination SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.Published, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrExaminationNotFound
		}
		logger.Error().Err(err).Int64("examID", e.ID).Msg("Error updating examination")
		return fmt.Errorf("error updating examination: %w", err)
	}
	return nil
}

// SetPublished toggles publication. publishedAt is cleared when unpublishing.
func (r *ExaminationRepository) SetPublished(ctx context.Context, id int64, published bool, at time.Time) error {
	var publishedAt *time.Time
	if published {
		publishedAt = &at
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE examinations SET published = $1, published_at = $2, updated_at = NOW() WHERE id = $3`,
		published, publishedAt, id)
	if err != nil {
		logger.Error().Err(err).Int64("examID", id).Msg("Error publishing examination")
		return fmt.Errorf("error publishing examination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrExaminationNotFound
	}
	return nil
}

// Delete removes an examination and its marks
func (r *ExaminationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM examinations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting examination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrExaminationNotFound
	}
	return nil
}

// CountByPublished returns (published, draft) counts
func (r *ExaminationRepository) CountByPublished(ctx context.Context) (int64, int64, error) {
	var published, draft int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE published), COUNT(*) FILTER (WHERE NOT published)
		FROM examinations`).Scan(&published, &draft)
	if err != nil {
		return 0, 0, fmt.Errorf("error counting examinations: %w", err)
	}
	return published, draft, nil
}

// UpsertMark inserts or replaces one student's mark in one subject
func (r *ExaminationRepository) UpsertMark(ctx context.Context, m *models.ExamMark) error {
	sql, args, err := r.sb.Insert("exam_marks").
		Columns("exam_id", "student_id", "subject", "marks_obtained", "max_marks", "is_absent", "remarks").
		Values(m.ExamID, m.StudentID, m.Subject, m.MarksObtained, m.MaxMarks, m.IsAbsent, m.Remarks).
		Suffix(`ON CONFLICT ON CONSTRAINT exam_marks_exam_student_subject_key DO UPDATE SET
			marks_obtained = EXCLUDED.marks_obtained,
			max_marks = EXCLUDED.max_marks,
			is_absent = EXCLUDED.is_absent,
			remarks = EXCLUDED.remarks,
			updated_at = NOW()
			RETURNING id, updated_at`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert mark SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("examID", m.ExamID).Str("studentID", m.StudentID).Msg("Error upserting mark")
		return fmt.Errorf("error saving mark: %w", err)
	}
	return nil
}

// MarksForExam returns every mark of an examination
func (r *ExaminationRepository) MarksForExam(ctx context.Context, examID int64) ([]models.ExamMark, error) {
	sql, args, err := r.sb.Select(examMarkColumns...).From("exam_marks").
		Where(squirrel.Eq{"exam_id": examID}).
		OrderBy("student_id", "id").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building exam marks SQL")
		return nil, err
	}
	return r.queryMarks(ctx, sql, args...)
}

// MarksForStudent returns a student's marks in the given examinations
func (r *ExaminationRepository) MarksForStudent(ctx context.Context, studentID string, examIDs []int64) ([]models.ExamMark, error) {
	if len(examIDs) == 0 {
		return []models.ExamMark{}, nil
	}
	sql, args, err := r.sb.Select(examMarkColumns...).From("exam_marks").
		Where(squirrel.Eq{"student_id": studentID, "exam_id": examIDs}).
		OrderBy("exam_id", "id").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building student marks SQL")
		return nil, err
	}
	return r.queryMarks(ctx, sql, args...)
}

func (r *ExaminationRepository) queryMarks(ctx context.Context, sql string, args ...interface{}) ([]models.ExamMark, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying marks: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExamMark, 0)
	for rows.Next() {
		var m models.ExamMark
		if err := rows.Scan(&m.ID, &m.ExamID, &m.StudentID, &m.Subject, &m.MarksObtained,
			&m.MaxMarks, &m.IsAbsent, &m.Remarks, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
