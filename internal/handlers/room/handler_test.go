package room_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/infras/otel/mocks"
	roomMocks "resort/internal/domains/room/mocks"
	"resort/internal/domains/room/model/dto"
	"resort/internal/handlers/room"
	gDto "resort/shared/dto"
	"resort/shared/failure"
)

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestHandler_CreateRoom(t *testing.T) {
	tests := []struct {
		name      string
		fields    map[string]string
		setupMock func(service *roomMocks.MockRoomService)
		wantCode  int
		wantBody  string
	}{
		{
			name:   "created",
			fields: map[string]string{"name": "Ocean Villa", "price": "250", "max_guests": "4"},
			setupMock: func(service *roomMocks.MockRoomService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, req dto.CreateRoomRequest) (dto.RoomResponse, error) {
						assert.Equal(t, "Ocean Villa", req.Name)
						assert.InDelta(t, 250.0, req.Price, 0.001)
						assert.Equal(t, 4, req.MaxGuests)

						return dto.RoomResponse{ID: "r1", Name: req.Name}, nil
					})
			},
			wantCode: http.StatusCreated,
			wantBody: `"id":"r1"`,
		},
		{
			name:      "price is not a number",
			fields:    map[string]string{"name": "Ocean Villa", "price": "cheap", "max_guests": "4"},
			setupMock: func(_ *roomMocks.MockRoomService) {},
			wantCode:  http.StatusBadRequest,
			wantBody:  "price must be a number",
		},
		{
			name:      "name is required",
			fields:    map[string]string{"price": "250", "max_guests": "4"},
			setupMock: func(_ *roomMocks.MockRoomService) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := roomMocks.NewMockRoomService(ctrl)
			tt.setupMock(service)

			router := chi.NewRouter()
			handler := room.New(service, mocks.NewOtel())
			handler.Router(router)

			body, contentType := multipartBody(t, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/rooms", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandler_CreateRoomRejectsJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := roomMocks.NewMockRoomService(ctrl)

	router := chi.NewRouter()
	handler := room.New(service, mocks.NewOtel())
	handler.Router(router)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ReadAndDelete(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		setupMock func(service *roomMocks.MockRoomService)
		wantCode  int
	}{
		{
			name:   "list available rooms",
			method: http.MethodGet,
			target: "/rooms?available=true",
			setupMock: func(service *roomMocks.MockRoomService) {
				service.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRoomsResponse, error) {
						assert.Len(t, filter.Filters, 2)

						return dto.GetRoomsResponse{}, nil
					})
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "room not found",
			method: http.MethodGet,
			target: "/rooms/missing",
			setupMock: func(service *roomMocks.MockRoomService) {
				service.EXPECT().Get(gomock.Any(), "missing").Return(dto.RoomResponse{}, failure.NotFound("room not found"))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "delete room",
			method: http.MethodDelete,
			target: "/rooms/r1",
			setupMock: func(service *roomMocks.MockRoomService) {
				service.EXPECT().Delete(gomock.Any(), "r1").Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "delete room with bookings",
			method: http.MethodDelete,
			target: "/rooms/r1",
			setupMock: func(service *roomMocks.MockRoomService) {
				service.EXPECT().Delete(gomock.Any(), "r1").Return(failure.Conflict("room has bookings"))
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := roomMocks.NewMockRoomService(ctrl)
			tt.setupMock(service)

			router := chi.NewRouter()
			handler := room.New(service, mocks.NewOtel())
			handler.Router(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_UpdateRoomKeepsAbsentFieldsUnset(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := roomMocks.NewMockRoomService(ctrl)
	service.EXPECT().
		Update(gomock.Any(), gomock.Any(), "r1").
		DoAndReturn(func(_ any, req dto.UpdateRoomRequest, _ string) error {
			require.NotNil(t, req.Price)
			assert.InDelta(t, 0.0, *req.Price, 0.001)
			assert.Nil(t, req.MaxGuests)
			assert.Nil(t, req.Available)
			assert.Nil(t, req.Image)

			return nil
		})

	router := chi.NewRouter()
	handler := room.New(service, mocks.NewOtel())
	handler.Router(router)

	body, contentType := multipartBody(t, map[string]string{"price": "0"})
	req := httptest.NewRequest(http.MethodPatch, "/rooms/r1", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
