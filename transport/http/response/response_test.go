package response_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"resort/infras/otel/mocks"
	"resort/shared/constant"
	"resort/shared/failure"
	"resort/transport/http/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithJSON(rec, http.StatusCreated, map[string]string{"reference": "RSV-20250601-ABCD"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, constant.ContentTypeJSON, rec.Header().Get(constant.RequestHeaderContentType))

	var body response.Data[map[string]string]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RSV-20250601-ABCD", (*body.Data)["reference"])
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "conflict",
			err:      failure.Conflict("room is no longer available for the selected dates"),
			wantCode: http.StatusConflict,
			wantMsg:  "room is no longer available for the selected dates",
		},
		{
			name:     "upstream keeps cause private",
			err:      failure.Upstream("failed to fetch rooms", errors.New("pq: timeout")),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "failed to fetch rooms",
		},
		{
			name:     "plain error",
			err:      errors.New("sql: no rows"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  http.StatusText(http.StatusInternalServerError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			response.WithError(rec, tt.err)

			var body response.Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, *body.Error)
		})
	}
}

func TestWithTracedError(t *testing.T) {
	recorder := mocks.NewRecorder()
	_, scope := recorder.NewScope(context.Background(), "handler", "handler.CreateBooking")
	rec := httptest.NewRecorder()
	err := failure.NotFound("room not found")

	response.WithTracedError(rec, scope, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "room not found")
	require.Len(t, recorder.RecordedErrors(), 1)
	assert.ErrorIs(t, recorder.RecordedErrors()[0], err)
}

func TestCannedMessages(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter)
		wantCode int
		wantMsg  string
	}{
		{name: "rate limited", write: response.WithRequestLimitExceeded, wantCode: http.StatusTooManyRequests, wantMsg: constant.ResponseErrorRequestLimitExceeded},
		{name: "shutting down", write: response.WithPreparingShutdown, wantCode: http.StatusServiceUnavailable, wantMsg: constant.ResponseErrorPrepareShutdown},
		{name: "unhealthy", write: response.WithUnhealthy, wantCode: http.StatusServiceUnavailable, wantMsg: constant.ResponseErrorUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			var body response.Message
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, *body.Message)
		})
	}
}
