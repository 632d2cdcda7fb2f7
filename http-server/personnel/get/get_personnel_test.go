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

	"shift-production/internal/storage"
)

type MockPersonnelProvider struct {
	mock.Mock
}

func (m *MockPersonnelProvider) GetDoers(ctx context.Context) ([]storage.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Person), args.Error(1)
}

func (m *MockPersonnelProvider) GetSupervisors(ctx context.Context) ([]storage.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Person), args.Error(1)
}

func TestGetDoers(t *testing.T) {
	provider := new(MockPersonnelProvider)
	provider.On("GetDoers", mock.Anything).Return([]storage.Person{
		{ID: "1", Name: "D1", Email: "d1@example.com", Phone: "111"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/doers", nil)
	rr := httptest.NewRecorder()
	GetDoers(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []storage.Person
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "D1", resp[0].Name)

	provider.AssertExpectations(t)
	provider.AssertNotCalled(t, "GetSupervisors", mock.Anything)
}

func TestGetSupervisors_EmptyIsArray(t *testing.T) {
	provider := new(MockPersonnelProvider)
	provider.On("GetSupervisors", mock.Anything).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/supervisors", nil)
	rr := httptest.NewRecorder()
	GetSupervisors(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetSupervisors_StorageError(t *testing.T) {
	provider := new(MockPersonnelProvider)
	provider.On("GetSupervisors", mock.Anything).Return(nil, errors.New("read failed"))

	req := httptest.NewRequest(http.MethodGet, "/api/supervisors", nil)
	rr := httptest.NewRecorder()
	GetSupervisors(slog.Default(), provider).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to fetch supervisors")
}
