package get

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shift-production/internal/storage"
)

type MockItemProvider struct {
	mock.Mock
}

func (m *MockItemProvider) GetItemsByType(ctx context.Context, machineType string) ([]storage.Item, error) {
	args := m.Called(ctx, machineType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Item), args.Error(1)
}

func TestGetItems_Success(t *testing.T) {
	items := []storage.Item{
		{ID: "10", Category: "Tanks", SubCategory: "GR8", Size: "500L"},
		{ID: "12", Category: "Tanks", SubCategory: "GR8", Size: "1000L"},
	}
	provider := new(MockItemProvider)
	provider.On("GetItemsByType", mock.Anything, "Blow").Return(items, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/items?type=Blow", nil)
	rr := httptest.NewRecorder()
	GetItems(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"subCategory":"GR8"`)

	var resp []storage.Item
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, items, resp)
}

func TestGetItems_MissingType(t *testing.T) {
	provider := new(MockItemProvider)

	req := httptest.NewRequest(http.MethodGet, "/api/items?type=", nil)
	rr := httptest.NewRecorder()
	GetItems(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	provider.AssertNotCalled(t, "GetItemsByType", mock.Anything, mock.Anything)
}
