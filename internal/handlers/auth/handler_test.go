package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/infras/otel/mocks"
	authMocks "resort/internal/domains/auth/mocks"
	"resort/internal/domains/auth/model/dto"
	userDto "resort/internal/domains/user/model/dto"
	"resort/internal/handlers/auth"
	"resort/shared/constant"
	"resort/shared/failure"
)

func serve(t *testing.T, ctx context.Context, setup func(svc *authMocks.MockAuthService), method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	svc := authMocks.NewMockAuthService(gomock.NewController(t))
	if setup != nil {
		setup(svc)
	}

	handler := auth.New(svc, mocks.NewOtel())
	router := chi.NewRouter()
	handler.Router(router)

	request := httptest.NewRequest(method, target, strings.NewReader(body)).WithContext(ctx)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	return recorder
}

func TestHandler_Login(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setup    func(svc *authMocks.MockAuthService)
		wantCode int
		wantBody string
	}{
		{
			name: "issues tokens",
			body: `{"email":"desk@resort.test","password":"sunrise-shift"}`,
			setup: func(svc *authMocks.MockAuthService) {
				svc.EXPECT().
					Login(gomock.Any(), dto.LoginRequest{Email: "desk@resort.test", Password: "sunrise-shift"}).
					Return(dto.LoginResponse{AccessToken: "access", User: userDto.UserResponse{ID: "u-1"}}, nil)
			},
			wantCode: http.StatusOK,
			wantBody: `"access_token":"access"`,
		},
		{
			name:     "malformed email",
			body:     `{"email":"desk","password":"sunrise-shift"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "valid email",
		},
		{
			name:     "broken json",
			body:     `{"email":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "bad credentials",
			body: `{"email":"desk@resort.test","password":"nope"}`,
			setup: func(svc *authMocks.MockAuthService) {
				svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(dto.LoginResponse{}, failure.Unauthorized("invalid email or password"))
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(t, context.Background(), tt.setup, http.MethodPost, "/auth/login", tt.body)

			assert.Equal(t, tt.wantCode, recorder.Code)
			assert.Contains(t, recorder.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_Register(t *testing.T) {
	recorder := serve(t, context.Background(), func(svc *authMocks.MockAuthService) {
		svc.EXPECT().
			Register(gomock.Any(), dto.RegisterRequest{Email: "night@resort.test", Password: "password123", Level: constant.RoleStaff}).
			Return(userDto.UserResponse{ID: "u-2", Email: "night@resort.test", Level: constant.RoleStaff, Active: true}, nil)
	}, http.MethodPost, "/auth/register", `{"email":"night@resort.test","password":"password123","level":"staff"}`)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var body struct {
		Data userDto.UserResponse `json:"data"`
	}

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "u-2", body.Data.ID)
	assert.True(t, body.Data.Active)
}

func TestHandler_ChangePassword(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "u-1")

	t.Run("uses the caller identity", func(t *testing.T) {
		recorder := serve(t, ctx, func(svc *authMocks.MockAuthService) {
			svc.EXPECT().
				ChangePassword(gomock.Any(), dto.ChangePasswordRequest{CurrentPassword: "old-secret", NewPassword: "new-secret"}, "u-1").
				Return(nil)
		}, http.MethodPost, "/auth/change-password", `{"current_password":"old-secret","new_password":"new-secret"}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Password changed successfully")
	})

	t.Run("new password must change", func(t *testing.T) {
		recorder := serve(t, ctx, nil, http.MethodPost, "/auth/change-password", `{"current_password":"same-secret","new_password":"same-secret"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "must differ")
	})
}

func TestHandler_RefreshToken(t *testing.T) {
	recorder := serve(t, context.Background(), func(svc *authMocks.MockAuthService) {
		svc.EXPECT().RefreshToken(gomock.Any(), dto.RefreshTokenRequest{RefreshToken: "stale"}).
			Return(dto.RefreshTokenResponse{}, failure.Unauthorized("invalid refresh token"))
	}, http.MethodPost, "/auth/refresh-token", `{"refresh_token":"stale"}`)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
