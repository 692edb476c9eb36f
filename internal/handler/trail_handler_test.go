package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/recordtrail"
)

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) Record(ctx context.Context, db recordtrail.Beginner, c recordtrail.Change) (recordtrail.Receipt, error) {
	args := m.Called(ctx, db, c)
	return args.Get(0).(recordtrail.Receipt), args.Error(1)
}

func (m *mockTracker) History(ctx context.Context, db recordtrail.Querier, table string, key recordtrail.PrimaryKey) (*recordtrail.History, error) {
	args := m.Called(ctx, db, table, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordtrail.History), args.Error(1)
}

func setupTrailRouter(tracker *mockTracker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	NewTrailHandler(tracker, nil, nil).RegisterRoutes(r)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestGetHistory_Success(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)

	changedAt := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)
	newName := "alice"
	tracker.On("History", mock.Anything, mock.Anything, "users", recordtrail.PrimaryKey{"id": int64(7)}).
		Return(&recordtrail.History{
			Table: "users",
			Key:   `{"id":7}`,
			Entries: []recordtrail.Entry{{
				ID:        1,
				Kind:      recordtrail.KindCreate,
				Actor:     "admin",
				ChangedAt: changedAt,
				Attributes: []recordtrail.AttributeChange{
					{Name: "name", New: &newName},
				},
			}},
		}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/users?key="+url.QueryEscape(`{"id":7}`), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got recordtrail.History
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "users", got.Table)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, recordtrail.KindCreate, got.Entries[0].Kind)
	require.Len(t, got.Entries[0].Attributes, 1)
	assert.Equal(t, "alice", *got.Entries[0].Attributes[0].New)
	tracker.AssertExpectations(t)
}

func TestGetHistory_MissingKey(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history/users", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, "RECORDTRAIL_VALIDATION_FAILED", detail.Code)
	assert.NotEmpty(t, detail.RequestID)
	tracker.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetHistory_MalformedKey(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history/users?key=not-json", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "RECORDTRAIL_VALIDATION_FAILED", decodeError(t, w).Code)
}

func TestGetHistory_StorageErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    &recordtrail.ValidationError{Field: "table", Reason: "bad"},
			status: http.StatusBadRequest,
			code:   "RECORDTRAIL_VALIDATION_FAILED",
		},
		{
			name:   "storage",
			err:    &recordtrail.StorageError{Op: "query history", Err: errors.New("connection refused")},
			status: http.StatusInternalServerError,
			code:   "RECORDTRAIL_INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tracker := new(mockTracker)
			r := setupTrailRouter(tracker)
			tracker.On("History", mock.Anything, mock.Anything, "users", mock.Anything).Return(nil, tc.err)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history/users?key="+url.QueryEscape(`{"id":1}`), nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestPostRecord_Created(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)

	tracker.On("Record", mock.Anything, mock.Anything, mock.MatchedBy(func(c recordtrail.Change) bool {
		name, _ := c.New.Get("name")
		return c.Table == "users" &&
			c.Kind == recordtrail.KindUpdate &&
			c.Key["id"] == int64(7) &&
			name == "bob" &&
			!c.Precomputed
	})).Return(recordtrail.Receipt{ID: 11, DetailIDs: []int64{21}}, nil)

	body := `{"table":"users","key":{"id":7},"kind":"update","old":{"name":"alice"},"new":{"name":"bob"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "admin")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var rec recordtrail.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, int64(11), rec.ID)
	assert.Equal(t, []int64{21}, rec.DetailIDs)

	ctx := tracker.Calls[0].Arguments.Get(0).(context.Context)
	assert.Equal(t, "admin", recordtrail.ActorFrom(ctx))
	tracker.AssertExpectations(t)
}

func TestPostRecord_Skipped(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)
	tracker.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(recordtrail.Receipt{}, nil)

	body := `{"table":"users","key":{"id":7},"kind":"U","actor":"admin","old":{"name":"a"},"new":{"name":"a"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPostRecord_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{`},
		{name: "missing table", body: `{"key":{"id":1},"kind":"create"}`},
		{name: "bad kind", body: `{"table":"users","key":{"id":1},"kind":"upsert"}`},
		{name: "bad key", body: `{"table":"users","key":[1],"kind":"create"}`},
		{name: "bad values", body: `{"table":"users","key":{"id":1},"kind":"create","new":[1]}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tracker := new(mockTracker)
			r := setupTrailRouter(tracker)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			tracker.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPostRecord_RecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "empty change", err: recordtrail.ErrEmptyChange, status: http.StatusUnprocessableEntity, code: "RECORDTRAIL_EMPTY_CHANGE"},
		{name: "validation", err: &recordtrail.ValidationError{Field: "actor", Reason: "must not be empty"}, status: http.StatusBadRequest, code: "RECORDTRAIL_VALIDATION_FAILED"},
		{name: "storage", err: &recordtrail.StorageError{Op: "commit", Err: errors.New("boom")}, status: http.StatusInternalServerError, code: "RECORDTRAIL_INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tracker := new(mockTracker)
			r := setupTrailRouter(tracker)
			tracker.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(recordtrail.Receipt{}, tc.err)

			body := `{"table":"users","key":{"id":1},"kind":"create","actor":"admin","new":{"name":"a"}}`
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestPostRecord_KeepsNumberText(t *testing.T) {
	tracker := new(mockTracker)
	r := setupTrailRouter(tracker)

	tracker.On("Record", mock.Anything, mock.Anything, mock.MatchedBy(func(c recordtrail.Change) bool {
		before, _ := c.Old.Get("total")
		after, _ := c.New.Get("total")
		oldText, err := recordtrail.EncodeValue(before)
		if err != nil || oldText == nil {
			return false
		}
		newText, err := recordtrail.EncodeValue(after)
		if err != nil || newText == nil {
			return false
		}
		return *oldText == "12345678901234567890" && *newText == "12345678901234567891"
	})).Return(recordtrail.Receipt{ID: 1, DetailIDs: []int64{2}}, nil)

	body := `{"table":"orders","key":{"id":1},"kind":"update","actor":"admin",` +
		`"old":{"total":12345678901234567890},"new":{"total":12345678901234567891}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	tracker.AssertExpectations(t)
}
