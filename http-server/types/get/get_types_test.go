package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTypesProvider struct {
	mock.Mock
}

func (m *MockTypesProvider) GetMachineTypes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestGetTypes_Success(t *testing.T) {
	provider := new(MockTypesProvider)
	provider.On("GetMachineTypes", mock.Anything).Return([]string{"Blow", "Roto"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
	rr := httptest.NewRecorder()
	GetTypes(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []string
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, []string{"Blow", "Roto"}, resp)

	provider.AssertExpectations(t)
}

func TestGetTypes_StorageError(t *testing.T) {
	provider := new(MockTypesProvider)
	provider.On("GetMachineTypes", mock.Anything).Return(nil, errors.New("sheet missing"))

	req := httptest.NewRequest(http.MethodGet, "/api/types", nil)
	rr := httptest.NewRecorder()
	GetTypes(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "Failed to fetch types", resp["error"])
}
