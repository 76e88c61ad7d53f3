package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

// In-memory stores shared by the service tests. They mirror the error
// mapping of the Postgres repositories.

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[int64]*models.User)}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.UserID == u.UserID {
			return apperrors.ErrUserIDExists
		}
		if u.Email != nil && existing.Email != nil && strings.EqualFold(*existing.Email, *u.Email) {
			return apperrors.ErrEmailAlreadyUsed
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUserID(_ context.Context, userID string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.UserID == userID })
}

func (m *memUsers) GetByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.UserID == identifier || (u.Email != nil && strings.EqualFold(*u.Email, identifier))
	})
}

func (m *memUsers) List(_ context.Context, role string, page, size int) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*models.User, 0)
	for _, u := range m.rows {
		if role == "" || string(u.Role) == role {
			cp := *u
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[u.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	cp := *u
	cp.Password = existing.Password
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) DeleteByStudentRef(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.rows {
		if u.StudentRef != nil && *u.StudentRef == studentID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memUsers) IDsByStudentRef(_ context.Context, studentID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0)
	for id, u := range m.rows {
		if u.StudentRef != nil && *u.StudentRef == studentID && u.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memUsers) CountByRole(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, u := range m.rows {
		counts[string(u.Role)]++
	}
	return counts, nil
}

type memAdmins struct {
	nextID int64
	rows   map[int64]*models.Admin
	users  *memUsers
}

func newMemAdmins(users *memUsers) *memAdmins {
	return &memAdmins{rows: make(map[int64]*models.Admin), users: users}
}

func (m *memAdmins) Create(_ context.Context, a *models.Admin) error {
	for _, existing := range m.rows {
		if existing.UserRef == a.UserRef {
			return apperrors.NewConflictError("user already has an admin profile")
		}
	}
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAdmins) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("admin not found")
	}
	// Profiles vanish with their user row
	if _, err := m.users.GetByID(ctx, a.UserRef); err != nil {
		return nil, apperrors.NewResourceNotFoundError("admin not found")
	}
	cp := *a
	return &cp, nil
}

func (m *memAdmins) GetByUserRef(ctx context.Context, userRef int64) (*models.Admin, error) {
	for _, a := range m.rows {
		if a.UserRef == userRef {
			return m.GetByID(ctx, a.ID)
		}
	}
	return nil, apperrors.NewResourceNotFoundError("admin not found")
}

func (m *memAdmins) List(ctx context.Context) ([]*models.Admin, error) {
	out := make([]*models.Admin, 0)
	for id := range m.rows {
		if a, err := m.GetByID(ctx, id); err == nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memAdmins) Update(_ context.Context, a *models.Admin) error {
	if _, ok := m.rows[a.ID]; !ok {
		return apperrors.NewResourceNotFoundError("admin not found")
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

type memStudents struct {
	nextID int64
	rows   map[string]*models.Student
}

func newMemStudents() *memStudents {
	return &memStudents{rows: make(map[string]*models.Student)}
}

func (m *memStudents) rollTaken(s *models.Student) bool {
	for _, o := range m.rows {
		if o.StudentID != s.StudentID && o.CurrentStudyClass == s.CurrentStudyClass &&
			o.CurrentSection == s.CurrentSection && o.AdmissionYear == s.AdmissionYear && o.RollNo == s.RollNo {
			return true
		}
	}
	return false
}

func (m *memStudents) Create(_ context.Context, s *models.Student) error {
	if _, ok := m.rows[s.StudentID]; ok {
		return apperrors.ErrStudentIDAlreadyExists
	}
	if m.rollTaken(s) {
		return apperrors.ErrRollNumberTaken
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.rows[s.StudentID] = &cp
	return nil
}

func (m *memStudents) GetByStudentID(_ context.Context, studentID string) (*models.Student, error) {
	s, ok := m.rows[studentID]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStudents) Exists(_ context.Context, studentID string) (bool, error) {
	_, ok := m.rows[studentID]
	return ok, nil
}

func (m *memStudents) sorted(keep func(*models.Student) bool) []*models.Student {
	out := make([]*models.Student, 0)
	for _, s := range m.rows {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

func (m *memStudents) List(_ context.Context, f models.StudentFilter, page, size int) ([]*models.Student, int64, error) {
	all := m.sorted(func(s *models.Student) bool {
		return (f.Class == "" || s.CurrentStudyClass == f.Class) &&
			(f.Section == "" || s.CurrentSection == f.Section) &&
			(f.AdmissionYear == 0 || s.AdmissionYear == f.AdmissionYear) &&
			(f.Search == "" || strings.Contains(strings.ToLower(s.FullName()+" "+s.StudentID), strings.ToLower(f.Search)))
	})
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memStudents) ListByClass(_ context.Context, class string) ([]*models.Student, error) {
	return m.sorted(func(s *models.Student) bool { return s.CurrentStudyClass == class }), nil
}

func (m *memStudents) GetByStudentIDs(_ context.Context, ids []string) (map[string]*models.Student, error) {
	out := make(map[string]*models.Student)
	for _, id := range ids {
		if s, ok := m.rows[id]; ok {
			cp := *s
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memStudents) RollNoTaken(_ context.Context, class, section string, year int, rollNo, exclude string) (bool, error) {
	candidate := &models.Student{StudentID: exclude, CurrentStudyClass: class, CurrentSection: section, AdmissionYear: year, RollNo: rollNo}
	return m.rollTaken(candidate), nil
}

func (m *memStudents) Update(_ context.Context, s *models.Student) error {
	if _, ok := m.rows[s.StudentID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	if m.rollTaken(s) {
		return apperrors.ErrRollNumberTaken
	}
	cp := *s
	m.rows[s.StudentID] = &cp
	return nil
}

func (m *memStudents) Delete(_ context.Context, studentID string) error {
	if _, ok := m.rows[studentID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(m.rows, studentID)
	return nil
}

func (m *memStudents) Count(_ context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

type memFeeStructures struct {
	nextID int64
	rows   map[int64]*models.FeeStructure
}

func newMemFeeStructures() *memFeeStructures {
	return &memFeeStructures{rows: make(map[int64]*models.FeeStructure)}
}

func (m *memFeeStructures) clash(fs *models.FeeStructure) bool {
	for _, o := range m.rows {
		if o.ID != fs.ID && o.SessionYear == fs.SessionYear && o.Class == fs.Class {
			return true
		}
	}
	return false
}

func (m *memFeeStructures) Create(_ context.Context, fs *models.FeeStructure) error {
	if m.clash(fs) {
		return apperrors.ErrFeeStructureExists
	}
	m.nextID++
	fs.ID = m.nextID
	cp := *fs
	m.rows[fs.ID] = &cp
	return nil
}

func (m *memFeeStructures) GetByID(_ context.Context, id int64) (*models.FeeStructure, error) {
	fs, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrFeeStructureNotFound
	}
	cp := *fs
	return &cp, nil
}

func (m *memFeeStructures) GetForClass(_ context.Context, sessionYear, class string) (*models.FeeStructure, error) {
	var best *models.FeeStructure
	for _, fs := range m.rows {
		if fs.Class != class || (sessionYear != "" && fs.SessionYear != sessionYear) {
			continue
		}
		if best == nil || fs.SessionYear > best.SessionYear {
			best = fs
		}
	}
	if best == nil {
		return nil, apperrors.ErrFeeStructureNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memFeeStructures) List(_ context.Context, sessionYear, class string) ([]*models.FeeStructure, error) {
	out := make([]*models.FeeStructure, 0)
	for _, fs := range m.rows {
		if (sessionYear == "" || fs.SessionYear == sessionYear) && (class == "" || fs.Class == class) {
			cp := *fs
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memFeeStructures) Update(_ context.Context, fs *models.FeeStructure) error {
	if _, ok := m.rows[fs.ID]; !ok {
		return apperrors.ErrFeeStructureNotFound
	}
	if m.clash(fs) {
		return apperrors.ErrFeeStructureExists
	}
	cp := *fs
	m.rows[fs.ID] = &cp
	return nil
}

func (m *memFeeStructures) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrFeeStructureNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memFeeStructures) Count(_ context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

type memTransactions struct {
	rows []*models.Transaction
}

func (m *memTransactions) Create(_ context.Context, t *models.Transaction) error {
	for _, o := range m.rows {
		if o.ReceiptID == t.ReceiptID {
			return apperrors.ErrReceiptIDExists
		}
	}
	t.ID = int64(len(m.rows) + 1)
	t.CreatedAt = time.Now()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memTransactions) List(_ context.Context, f models.TransactionFilter, page, size int) ([]*models.Transaction, int64, error) {
	all := make([]*models.Transaction, 0)
	for _, t := range m.rows {
		if f.StudentID != "" && t.StudentID != f.StudentID {
			continue
		}
		if f.From != nil && t.PaidAt.Before(*f.From) {
			continue
		}
		if f.To != nil && t.PaidAt.After(*f.To) {
			continue
		}
		cp := *t
		all = append(all, &cp)
	}
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memTransactions) ListByStudent(_ context.Context, studentID string) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0)
	for _, t := range m.rows {
		if t.StudentID == studentID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTransactions) Recent(_ context.Context, n int) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0, n)
	for i := len(m.rows) - 1; i >= 0 && len(out) < n; i-- {
		cp := *m.rows[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memTransactions) SumSince(_ context.Context, since *time.Time) (float64, error) {
	var sum float64
	for _, t := range m.rows {
		if since == nil || !t.PaidAt.Before(*since) {
			sum += t.Amount
		}
	}
	return sum, nil
}

type memExams struct {
	nextID int64
	rows   map[int64]*models.Examination
	marks  []models.ExamMark
}

func newMemExams() *memExams {
	return &memExams{rows: make(map[int64]*models.Examination)}
}

func (m *memExams) Create(_ context.Context, e *models.Examination) error {
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memExams) GetByID(_ context.Context, id int64) (*models.Examination, error) {
	e, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrExaminationNotFound
	}
	cp := *e
	return &cp, nil
}

// List returns newest (highest id) first
func (m *memExams) List(_ context.Context, f models.ExamFilter) ([]*models.Examination, error) {
	out := make([]*models.Examination, 0)
	for _, e := range m.rows {
		if (f.Class == "" || e.Class == f.Class) &&
			(f.SessionYear == "" || e.SessionYear == f.SessionYear) &&
			(!f.PublishedOnly || e.Published) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memExams) Update(_ context.Context, e *models.Examination) error {
	if _, ok := m.rows[e.ID]; !ok {
		return apperrors.ErrExaminationNotFound
	}
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memExams) SetPublished(_ context.Context, id int64, published bool, at time.Time) error {
	e, ok := m.rows[id]
	if !ok {
		return apperrors.ErrExaminationNotFound
	}
	e.Published = published
	if published {
		e.PublishedAt = &at
	} else {
		e.PublishedAt = nil
	}
	return nil
}

func (m *memExams) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrExaminationNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memExams) CountByPublished(_ context.Context) (int64, int64, error) {
	var published, draft int64
	for _, e := range m.rows {
		if e.Published {
			published++
		} else {
			draft++
		}
	}
	return published, draft, nil
}

func (m *memExams) UpsertMark(_ context.Context, mark *models.ExamMark) error {
	for i, existing := range m.marks {
		if existing.ExamID == mark.ExamID && existing.StudentID == mark.StudentID && existing.Subject == mark.Subject {
			mark.ID = existing.ID
			m.marks[i] = *mark
			return nil
		}
	}
	mark.ID = int64(len(m.marks) + 1)
	m.marks = append(m.marks, *mark)
	return nil
}

func (m *memExams) MarksForExam(_ context.Context, examID int64) ([]models.ExamMark, error) {
	out := make([]models.ExamMark, 0)
	for _, mark := range m.marks {
		if mark.ExamID == examID {
			out = append(out, mark)
		}
	}
	return out, nil
}

func (m *memExams) MarksForStudent(_ context.Context, studentID string, examIDs []int64) ([]models.ExamMark, error) {
	wanted := make(map[int64]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	out := make([]models.ExamMark, 0)
	for _, mark := range m.marks {
		if mark.StudentID == studentID && wanted[mark.ExamID] {
			out = append(out, mark)
		}
	}
	return out, nil
}

type memOTPs struct {
	rows map[string]*models.OTP
}

func newMemOTPs() *memOTPs {
	return &memOTPs{rows: make(map[string]*models.OTP)}
}

func (m *memOTPs) key(identifier string, purpose models.OTPPurpose) string {
	return identifier + "|" + string(purpose)
}

func (m *memOTPs) Save(_ context.Context, otp *models.OTP) error {
	cp := *otp
	m.rows[m.key(otp.Identifier, otp.Purpose)] = &cp
	return nil
}

func (m *memOTPs) Get(_ context.Context, identifier string, purpose models.OTPPurpose) (*models.OTP, error) {
	otp, ok := m.rows[m.key(identifier, purpose)]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	cp := *otp
	return &cp, nil
}

func (m *memOTPs) IncrementAttempts(_ context.Context, identifier string, purpose models.OTPPurpose) (int, error) {
	otp, ok := m.rows[m.key(identifier, purpose)]
	if !ok {
		return 0, apperrors.ErrResourceNotFound
	}
	otp.Attempts++
	return otp.Attempts, nil
}

func (m *memOTPs) Delete(_ context.Context, identifier string, purpose models.OTPPurpose) error {
	delete(m.rows, m.key(identifier, purpose))
	return nil
}

// memTx runs the unit of work directly against the in-memory stores. It
// does not roll back; tests assert on the error only.
type memTx struct {
	stores TxStores
	calls  int
}

func (m *memTx) InTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error {
	m.calls++
	return fn(ctx, m.stores)
}

type sentNotification struct {
	UserID int64
	Type   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(userID int64, notificationType, _ string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notificationType})
}

type sentMail struct {
	To   string
	Code string
}

type fakeMailer struct {
	otps    []sentMail
	changed []string
}

func (f *fakeMailer) SendOTPEmail(toEmail, _ string, code string, _ time.Duration) error {
	f.otps = append(f.otps, sentMail{To: toEmail, Code: code})
	return nil
}

func (f *fakeMailer) SendPasswordChangedEmail(toEmail, _ string) error {
	f.changed = append(f.changed, toEmail)
	return nil
}

// world bundles a full set of in-memory stores
type world struct {
	users        *memUsers
	admins       *memAdmins
	students     *memStudents
	fees         *memFeeStructures
	transactions *memTransactions
	exams        *memExams
	otps         *memOTPs
	tx           *memTx
	notifier     *recordingNotifier
}

func newWorld() *world {
	w := &world{
		users:        newMemUsers(),
		students:     newMemStudents(),
		fees:         newMemFeeStructures(),
		transactions: &memTransactions{},
		exams:        newMemExams(),
		otps:         newMemOTPs(),
		notifier:     &recordingNotifier{},
	}
	w.admins = newMemAdmins(w.users)
	w.tx = &memTx{stores: TxStores{Users: w.users, Admins: w.admins, Students: w.students, Exams: w.exams}}
	return w
}
