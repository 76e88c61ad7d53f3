package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/domain/fees"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
	"github.com/yigit/schooladmin/internal/pkg/validation"
)

// FeeService manages fee structures
type FeeService interface {
	List(ctx context.Context, sessionYear, class string) ([]*models.FeeStructure, error)
	Get(ctx context.Context, id int64) (*models.FeeStructure, error)
	Create(ctx context.Context, req *dto.FeeStructureRequest) (*models.FeeStructure, error)
	Patch(ctx context.Context, id int64, req *dto.FeeStructurePatch) (*models.FeeStructure, error)
	Delete(ctx context.Context, id int64) error
}

type feeService struct {
	structures FeeStructureStore
}

// NewFeeService creates a new FeeService
func NewFeeService(structures FeeStructureStore) FeeService {
	return &feeService{structures: structures}
}

func validateSessionYear(year string) error {
	if !validation.IsSessionYear(year) {
		return fmt.Errorf("%w: sessionYear must look like 2025, 2025-26 or 2025-2026", apperrors.ErrValidationFailed)
	}
	return nil
}

// feeLinesFromRequest builds fee lines, deriving a key from the title when
// the client did not send one. Keys must be unique within a structure.
func feeLinesFromRequest(in []dto.FeeLineRequest) ([]models.FeeLine, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one fee line is required", apperrors.ErrValidationFailed)
	}
	seen := make(map[string]bool, len(in))
	lines := make([]models.FeeLine, 0, len(in))
	for _, l := range in {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: fee title is required", apperrors.ErrValidationFailed)
		}
		if l.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount of %q must be greater than 0", apperrors.ErrValidationFailed, title)
		}
		key := fees.NormalizeKey(l.FeeTypeKey)
		if key == "" {
			key = fees.NormalizeKey(title)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate fee type %q", apperrors.ErrValidationFailed, key)
		}
		seen[key] = true
		lines = append(lines, models.FeeLine{FeeTypeKey: key, Title: title, Amount: l.Amount})
	}
	return lines, nil
}

// installmentsFromRequest parses due dates and orders installments by them
func installmentsFromRequest(in []dto.InstallmentRequest) ([]models.Installment, error) {
	out := make([]models.Installment, 0, len(in))
	for _, i := range in {
		label := strings.TrimSpace(i.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: installment label is required", apperrors.ErrValidationFailed)
		}
		if i.Amount < 0 {
			return nil, fmt.Errorf("%w: installment %q amount must not be negative", apperrors.ErrValidationFailed, label)
		}
		due, err := helpers.ParseDate(i.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: installment %q: %v", apperrors.ErrValidationFailed, label, err)
		}
		out = append(out, models.Installment{Label: label, Amount: i.Amount, DueDate: due})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DueDate.Before(out[b].DueDate) })
	return out, nil
}

func (s *feeService) List(ctx context.Context, sessionYear, class string) ([]*models.FeeStructure, error) {
	return s.structures.List(ctx, strings.TrimSpace(sessionYear), strings.TrimSpace(class))
}

func (s *feeService) Get(ctx context.Context, id int64) (*models.FeeStructure, error) {
	return s.structures.GetByID(ctx, id)
}

// Create stores a new structure. A second structure for the same session
// year and class is rejected with ErrFeeStructureExists.
func (s *feeService) Create(ctx context.Context, req *dto.FeeStructureRequest) (*models.FeeStructure, error) {
	year := strings.TrimSpace(req.SessionYear)
	if err := validateSessionYear(year); err != nil {
		return nil, err
	}
	class := strings.TrimSpace(req.Class)
	if class == "" {
		return nil, fmt.Errorf("%w: class is required", apperrors.ErrValidationFailed)
	}
	lines, err := feeLinesFromRequest(req.Fees)
	if err != nil {
		return nil, err
	}
	installments, err := installmentsFromRequest(req.Installments)
	if err != nil {
		return nil, err
	}

	fs := &models.FeeStructure{
		SessionYear:  year,
		Class:        class,
		Fees:         lines,
		Installments: installments,
	}
	if err := s.structures.Create(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// Patch replaces only the parts present in req
func (s *feeService) Patch(ctx context.Context, id int64, req *dto.FeeStructurePatch) (*models.FeeStructure, error) {
	fs, err := s.structures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SessionYear != nil {
		year := strings.TrimSpace(*req.SessionYear)
		if err := validateSessionYear(year); err != nil {
			return nil, err
		}
		fs.SessionYear = year
	}
	if req.Class != nil {
		class := strings.TrimSpace(*req.Class)
		if class == "" {
			return nil, fmt.Errorf("%w: class must not be empty", apperrors.ErrValidationFailed)
		}
		fs.Class = class
	}
	if req.Fees != nil {
		if fs.Fees, err = feeLinesFromRequest(req.Fees); err != nil {
			return nil, err
		}
	}
	if req.Installments != nil {
		if fs.Installments, err = installmentsFromRequest(req.Installments); err != nil {
			return nil, err
		}
	}

	if err := s.structures.Update(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *feeService) Delete(ctx context.Context, id int64) error {
	return s.structures.Delete(ctx, id)
}
