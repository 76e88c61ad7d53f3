package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

func feeRequest() *dto.FeeStructureRequest {
	return &dto.FeeStructureRequest{
		SessionYear: "2025-26",
		Class:       "5",
		Fees: []dto.FeeLineRequest{
			{Title: "Tuition Fees", Amount: 60000},
			{Title: "Library Fee", FeeTypeKey: "Library", Amount: 3000},
		},
		Installments: []dto.InstallmentRequest{
			{Label: "Term 2", Amount: 30000, DueDate: "2025-10-31"},
			{Label: "Term 1", Amount: 33000, DueDate: "2025-06-30"},
		},
	}
}

func TestCreateFeeStructure(t *testing.T) {
	w := newWorld()
	svc := NewFeeService(w.fees)
	ctx := context.Background()

	fs, err := svc.Create(ctx, feeRequest())
	require.NoError(t, err)
	assert.Equal(t, "tuition-fee", fs.Fees[0].FeeTypeKey)
	assert.Equal(t, "library", fs.Fees[1].FeeTypeKey)
	require.Len(t, fs.Installments, 2)
	assert.Equal(t, "Term 1", fs.Installments[0].Label, "installments are ordered by due date")

	_, err = svc.Create(ctx, feeRequest())
	assert.ErrorIs(t, err, apperrors.ErrFeeStructureExists)
}

func TestCreateFeeStructureValidation(t *testing.T) {
	svc := NewFeeService(newWorld().fees)

	tests := []struct {
		name   string
		mutate func(r *dto.FeeStructureRequest)
	}{
		{name: "bad session year", mutate: func(r *dto.FeeStructureRequest) { r.SessionYear = "25-26" }},
		{name: "no fee lines", mutate: func(r *dto.FeeStructureRequest) { r.Fees = nil }},
		{name: "zero amount", mutate: func(r *dto.FeeStructureRequest) { r.Fees[0].Amount = 0 }},
		{name: "negative installment", mutate: func(r *dto.FeeStructureRequest) { r.Installments[0].Amount = -1 }},
		{name: "bad due date", mutate: func(r *dto.FeeStructureRequest) { r.Installments[0].DueDate = "31/10/2025" }},
		{name: "duplicate fee type", mutate: func(r *dto.FeeStructureRequest) { r.Fees[1].Title = "Tuition Fee"; r.Fees[1].FeeTypeKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := feeRequest()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}

func TestPatchFeeStructure(t *testing.T) {
	w := newWorld()
	svc := NewFeeService(w.fees)
	ctx := context.Background()

	fs, err := svc.Create(ctx, feeRequest())
	require.NoError(t, err)
	other := feeRequest()
	other.Class = "6"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	class := "7"
	patched, err := svc.Patch(ctx, fs.ID, &dto.FeeStructurePatch{Class: &class})
	require.NoError(t, err)
	assert.Equal(t, "7", patched.Class)
	assert.Len(t, patched.Fees, 2, "fees untouched")

	class = "6"
	_, err = svc.Patch(ctx, fs.ID, &dto.FeeStructurePatch{Class: &class})
	assert.ErrorIs(t, err, apperrors.ErrFeeStructureExists)

	_, err = svc.Patch(ctx, 999, &dto.FeeStructurePatch{})
	assert.ErrorIs(t, err, apperrors.ErrFeeStructureNotFound)

	require.NoError(t, svc.Delete(ctx, fs.ID))
	_, err = svc.Get(ctx, fs.ID)
	assert.ErrorIs(t, err, apperrors.ErrFeeStructureNotFound)
}
