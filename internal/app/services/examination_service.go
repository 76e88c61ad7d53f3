package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
	"github.com/yigit/schooladmin/internal/pkg/websocket"
)

// ExaminationService manages examinations, marks and results
type ExaminationService interface {
	List(ctx context.Context, p appAuth.Principal, filter models.ExamFilter) ([]*models.Examination, error)
	Get(ctx context.Context, p appAuth.Principal, id int64) (*models.Examination, error)
	Create(ctx context.Context, req *dto.ExaminationRequest) (*models.Examination, error)
	Update(ctx context.Context, id int64, req *dto.ExaminationRequest) (*models.Examination, error)
	Delete(ctx context.Context, id int64) error
	SaveMarks(ctx context.Context, examID int64, req *dto.MarksRequest) ([]models.ExamMark, error)
	SetPublished(ctx context.Context, id int64, published bool) (*models.Examination, error)
	StudentResults(ctx context.Context, p appAuth.Principal, studentID string, examID int64) ([]dto.StudentExamResult, error)
	ExamResults(ctx context.Context, id int64) ([]dto.ExamResultRow, error)
}

type examinationService struct {
	exams    ExaminationStore
	students StudentStore
	users    UserStore
	tx       Transactor
	authz    *appAuth.AuthorizationService
	notifier websocket.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExaminationService creates a new ExaminationService
func NewExaminationService(
	exams ExaminationStore,
	students StudentStore,
	users UserStore,
	tx Transactor,
	authz *appAuth.AuthorizationService,
	notifier websocket.Notifier,
	logger zerolog.Logger,
) ExaminationService {
	return &examinationService{
		exams:    exams,
		students: students,
		users:    users,
		tx:       tx,
		authz:    authz,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func examinationFromRequest(req *dto.ExaminationRequest) (*models.Examination, error) {
	name := strings.TrimSpace(req.Name)
	class := strings.TrimSpace(req.Class)
	year := strings.TrimSpace(req.SessionYear)
	if name == "" || class == "" || year == "" {
		return nil, fmt.Errorf("%w: name, class and sessionYear are required", apperrors.ErrValidationFailed)
	}
	if err := validateSessionYear(year); err != nil {
		return nil, err
	}
	if len(req.Subjects) == 0 {
		return nil, fmt.Errorf("%w: at least one subject is required", apperrors.ErrValidationFailed)
	}

	seen := make(map[string]bool, len(req.Subjects))
	subjects := make([]models.ExamSubject, 0, len(req.Subjects))
	for _, sub := range req.Subjects {
		subject := strings.TrimSpace(sub.Name)
		if subject == "" {
			return nil, fmt.Errorf("%w: subject name is required", apperrors.ErrValidationFailed)
		}
		if sub.MaxMarks <= 0 {
			return nil, fmt.Errorf("%w: maxMarks of %q must be greater than 0", apperrors.ErrValidationFailed, subject)
		}
		folded := strings.ToLower(subject)
		if seen[folded] {
			return nil, fmt.Errorf("%w: duplicate subject %q", apperrors.ErrValidationFailed, subject)
		}
		seen[folded] = true
		subjects = append(subjects, models.ExamSubject{Name: subject, MaxMarks: sub.MaxMarks})
	}

	start, err := helpers.ParseOptionalDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate: %v", apperrors.ErrValidationFailed, err)
	}

	return &models.Examination{
		Name:        name,
		Class:       class,
		SessionYear: year,
		ExamType:    strings.TrimSpace(req.ExamType),
		Subjects:    subjects,
		StartDate:   start,
	}, nil
}

// List returns examinations. Callers who may not see unpublished results
// only see published examinations.
func (s *examinationService) List(ctx context.Context, p appAuth.Principal, filter models.ExamFilter) ([]*models.Examination, error) {
	if !s.authz.CanSeeUnpublishedResults(p) {
		filter.PublishedOnly = true
	}
	return s.exams.List(ctx, filter)
}

func (s *examinationService) Get(ctx context.Context, p appAuth.Principal, id int64) (*models.Examination, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exam.Published && !s.authz.CanSeeUnpublishedResults(p) {
		return nil, apperrors.ErrExaminationNotFound
	}
	return exam, nil
}

func (s *examinationService) Create(ctx context.Context, req *dto.ExaminationRequest) (*models.Examination, error) {
	exam, err := examinationFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Update replaces the descriptive fields. The published state is changed
// only through SetPublished.
func (s *examinationService) Update(ctx context.Context, id int64, req *dto.ExaminationRequest) (*models.Examination, error) {
	existing, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exam, err := examinationFromRequest(req)
	if err != nil {
		return nil, err
	}
	exam.ID = existing.ID
	exam.Published = existing.Published
	exam.PublishedAt = existing.PublishedAt
	exam.CreatedAt = existing.CreatedAt

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *examinationService) Delete(ctx context.Context, id int64) error {
	return s.exams.Delete(ctx, id)
}

// SaveMarks validates every entry before writing any, then upserts them in
// one transaction. An absent student scores 0.
func (s *examinationService) SaveMarks(ctx context.Context, examID int64, req *dto.MarksRequest) ([]models.ExamMark, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(req.Marks) == 0 {
		return nil, fmt.Errorf("%w: at least one mark is required", apperrors.ErrValidationFailed)
	}

	ids := make([]string, 0, len(req.Marks))
	marks := make([]models.ExamMark, 0, len(req.Marks))
	for _, entry := range req.Marks {
		studentID := strings.TrimSpace(entry.StudentID)
		subject, ok := exam.Subject(strings.TrimSpace(entry.Subject))
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownSubject, entry.Subject)
		}

		mark := models.ExamMark{
			ExamID:        exam.ID,
			StudentID:     studentID,
			Subject:       subject.Name,
			MarksObtained: entry.MarksObtained,
			MaxMarks:      subject.MaxMarks,
			IsAbsent:      entry.IsAbsent,
			Remarks:       helpers.NilIfBlank(entry.Remarks),
		}
		if mark.IsAbsent {
			mark.MarksObtained = 0
		} else if mark.MarksObtained < 0 || mark.MarksObtained > subject.MaxMarks {
			return nil, fmt.Errorf("%w: marks for %s in %s must be between 0 and %g",
				apperrors.ErrValidationFailed, studentID, subject.Name, subject.MaxMarks)
		}
		ids = append(ids, studentID)
		marks = append(marks, mark)
	}

	found, err := s.students.GetByStudentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, id)
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, stores TxStores) error {
		for i := range marks {
			if err := stores.Exams.UpsertMark(ctx, &marks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marks, nil
}

// SetPublished publishes or withdraws results. Publishing notifies every
// student with marks in the examination and their parents.
func (s *examinationService) SetPublished(ctx context.Context, id int64, published bool) (*models.Examination, error) {
	now := s.now().UTC()
	if err := s.exams.SetPublished(ctx, id, published, now); err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if published {
		s.notifyPublished(ctx, exam)
	}
	return exam, nil
}

func (s *examinationService) notifyPublished(ctx context.Context, exam *models.Examination) {
	marks, err := s.exams.MarksForExam(ctx, exam.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("examID", exam.ID).Msg("Failed to load marks for publish notification")
		return
	}

	payload := websocket.ResultsPublished{
		ExamID:      exam.ID,
		ExamName:    exam.Name,
		Class:       exam.Class,
		SessionYear: exam.SessionYear,
	}
	done := make(map[string]bool)
	for _, m := range marks {
		if done[m.StudentID] {
			continue
		}
		done[m.StudentID] = true

		recipients, err := s.users.IDsByStudentRef(ctx, m.StudentID)
		if err != nil {
			s.logger.Warn().Err(err).Str("studentID", m.StudentID).Msg("Failed to resolve result notification recipients")
			continue
		}
		websocket.NotifyResultsPublished(s.notifier, recipients, payload)
	}
}

// StudentResults aggregates a student's marks per examination, newest
// first. examID narrows the answer to one examination.
func (s *examinationService) StudentResults(ctx context.Context, p appAuth.Principal, studentID string, examID int64) ([]dto.StudentExamResult, error) {
	if err := s.authz.CanAccessStudent(p, studentID); err != nil {
		return nil, err
	}
	if _, err := s.students.GetByStudentID(ctx, studentID); err != nil {
		return nil, err
	}
	privileged := s.authz.CanSeeUnpublishedResults(p)

	var exams []*models.Examination
	if examID > 0 {
		exam, err := s.exams.GetByID(ctx, examID)
		if err != nil {
			return nil, err
		}
		if !exam.Published && !privileged {
			return nil, apperrors.ErrResultsNotPublished
		}
		exams = []*models.Examination{exam}
	} else {
		var err error
		exams, err = s.exams.List(ctx, models.ExamFilter{PublishedOnly: !privileged})
		if err != nil {
			return nil, err
		}
	}

	return resultsFor(ctx, s.exams, studentID, exams)
}

// resultsFor keeps the order of exams and skips those without marks
func resultsFor(ctx context.Context, store ExaminationStore, studentID string, exams []*models.Examination) ([]dto.StudentExamResult, error) {
	ids := make([]int64, len(exams))
	for i, e := range exams {
		ids[i] = e.ID
	}
	marks, err := store.MarksForStudent(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}

	byExam := make(map[int64][]models.ExamMark)
	for _, m := range marks {
		byExam[m.ExamID] = append(byExam[m.ExamID], m)
	}

	results := make([]dto.StudentExamResult, 0, len(byExam))
	for _, e := range exams {
		if ms, ok := byExam[e.ID]; ok {
			results = append(results, dto.NewStudentExamResult(e, ms))
		}
	}
	return results, nil
}

// latestPublishedResult returns the student's most recent published result,
// or nil when there is none.
func latestPublishedResult(ctx context.Context, exams ExaminationStore, studentID string) (*dto.StudentExamResult, error) {
	published, err := exams.List(ctx, models.ExamFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	results, err := resultsFor(ctx, exams, studentID, published)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// ExamResults ranks every student with marks in an examination by
// percentage. Equal percentages share a rank.
func (s *examinationService) ExamResults(ctx context.Context, id int64) ([]dto.ExamResultRow, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	marks, err := s.exams.MarksForExam(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string][]models.ExamMark)
	order := make([]string, 0)
	for _, m := range marks {
		if _, ok := byStudent[m.StudentID]; !ok {
			order = append(order, m.StudentID)
		}
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}

	students, err := s.students.GetByStudentIDs(ctx, order)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ExamResultRow, 0, len(order))
	for _, sid := range order {
		row := dto.ExamResultRow{
			StudentID: sid,
			Result:    dto.NewStudentExamResult(exam, byStudent[sid]).Result,
		}
		if st, ok := students[sid]; ok {
			row.StudentName = st.FullName()
			row.RollNo = st.RollNo
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Result.Percentage != rows[j].Result.Percentage {
			return rows[i].Result.Percentage > rows[j].Result.Percentage
		}
		return rollNoLess(rows[i].RollNo, rows[j].RollNo)
	})
	for i := range rows {
		if i > 0 && rows[i].Result.Percentage == rows[i-1].Result.Percentage {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows, nil
}

// rollNoLess orders roll numbers numerically when both are integers, so "2"
// comes before "10"; otherwise it falls back to string order.
func rollNoLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}
