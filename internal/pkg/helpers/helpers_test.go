package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantOffset uint64
		wantLimit  int
	}{
		{name: "first page", page: 1, size: 20, wantOffset: 0, wantLimit: 20},
		{name: "third page", page: 3, size: 10, wantOffset: 20, wantLimit: 10},
		{name: "bad page", page: 0, size: 10, wantOffset: 0, wantLimit: 10},
		{name: "oversized", page: 2, size: 1000, wantOffset: 20, wantLimit: DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := CalculateOffsetLimit(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 10)
	assert.Equal(t, 5, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/students?page=3&size=25", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, size)

	c.Request = httptest.NewRequest("GET", "/api/students?page=-1&size=abc", nil)
	page, size = ParsePaginationParams(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-06-30T10:00:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 30, 4, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("30/06/2025")
	assert.Error(t, err)

	none, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestNilIfBlank(t *testing.T) {
	blank := "   "
	value := " 9876543210 "
	assert.Nil(t, NilIfBlank(nil))
	assert.Nil(t, NilIfBlank(&blank))
	assert.Equal(t, "9876543210", *NilIfBlank(&value))
	assert.Equal(t, "", StringValue(nil))
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = NormalizePage(4, MaxPageSize)
	assert.Equal(t, 4, page)
	assert.Equal(t, MaxPageSize, size)

	_, size = NormalizePage(1, MaxPageSize+1)
	assert.Equal(t, DefaultPageSize, size)
}
