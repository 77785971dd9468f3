package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"resort/config"
	"resort/infras/jwt"
	jwtMocks "resort/infras/jwt/mocks"
	"resort/infras/otel/mocks"
	"resort/internal/domains/auth/model/dto"
	"resort/internal/domains/auth/service"
	userMocks "resort/internal/domains/user/mocks"
	userModel "resort/internal/domains/user/model"
	"resort/shared/constant"
	"resort/shared/failure"
	gModel "resort/shared/model"
	"resort/shared/password"
	gRepo "resort/shared/repository"
	"resort/shared/timezone"
)

const deskPassword = "sunrise-shift"

type authFixture struct {
	users *userMocks.MockUser
	jwt   *jwtMocks.MockJWT
	svc   service.Auth
	desk  userModel.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := userMocks.NewMockUser(ctrl)
	tokens := jwtMocks.NewMockJWT(ctrl)

	hash, err := password.HashWithCost(deskPassword, bcrypt.MinCost)
	require.NoError(t, err)

	name := "Front Desk"

	return &authFixture{
		users: users,
		jwt:   tokens,
		svc:   service.New(users, &config.Config{}, mocks.NewOtel(), tokens),
		desk: userModel.User{
			ID:       "a7c1e6b2-0d0e-4f43-9d53-5b1a8c2f7e10",
			Email:    "desk@resort.test",
			Password: hash,
			Level:    constant.RoleStaff,
			FullName: &name,
			Active:   true,
			Metadata: gModel.NewMetadata(constant.ContextSystem, timezone.Now()),
		},
	}
}

func (f *authFixture) issues() {
	f.jwt.EXPECT().
		GenerateTokenPair(gomock.Any(), f.desk.ID, f.desk.Email, f.desk.Level).
		Return(&jwt.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}, nil)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		req           dto.LoginRequest
		setup         func(f *authFixture)
		wantCode      int
		wantLastLogin bool
	}{
		{
			name: "valid credentials",
			req:  dto.LoginRequest{Email: "  Desk@Resort.test ", Password: deskPassword},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
				f.issues()
				f.users.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Contains(t, fields, userModel.FieldLastLogin)
						assert.Equal(t, f.desk.ID, fields[constant.FieldModifiedBy])

						return nil
					})
			},
			wantLastLogin: true,
		},
		{
			name: "last login write failure still logs in",
			req:  dto.LoginRequest{Email: "desk@resort.test", Password: deskPassword},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
				f.issues()
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("read only transaction"))
			},
		},
		{
			name: "unknown email",
			req:  dto.LoginRequest{Email: "ghost@resort.test", Password: deskPassword},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: "desk@resort.test", Password: "sunset-shift"},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "deactivated account",
			req:  dto.LoginRequest{Email: "desk@resort.test", Password: deskPassword},
			setup: func(f *authFixture) {
				inactive := f.desk
				inactive.Active = false
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "store unavailable",
			req:  dto.LoginRequest{Email: "desk@resort.test", Password: deskPassword},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("connection refused"))
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "signing failure",
			req:  dto.LoginRequest{Email: "desk@resort.test", Password: deskPassword},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
				f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("no key"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setup(f)

			res, err := f.svc.Login(context.Background(), tt.req)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "access", res.AccessToken)
			assert.Equal(t, "refresh", res.RefreshToken)
			assert.Equal(t, f.desk.ID, res.User.ID)
			assert.Equal(t, tt.wantLastLogin, res.User.LastLogin != nil)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("rotates the pair", func(t *testing.T) {
		f := newAuthFixture(t)
		f.jwt.EXPECT().RefreshTokens(gomock.Any(), "refresh").
			Return(&jwt.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil)

		res, err := f.svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "refresh"})

		require.NoError(t, err)
		assert.Equal(t, "access-2", res.AccessToken)
		assert.Equal(t, "refresh-2", res.RefreshToken)
	})

	t.Run("rejected token is unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)
		f.jwt.EXPECT().RefreshTokens(gomock.Any(), "stale").Return(nil, jwt.ErrExpiredToken)

		_, err := f.svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "stale"})

		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.ChangePasswordRequest
		setup    func(f *authFixture)
		wantCode int
	}{
		{
			name: "replaces the hash",
			req:  dto.ChangePasswordRequest{CurrentPassword: deskPassword, NewPassword: "midnight-shift"},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
				f.users.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						hash, ok := fields[userModel.FieldPassword].(string)
						require.True(t, ok)
						assert.NoError(t, password.Verify("midnight-shift", hash))

						return nil
					})
			},
		},
		{
			name: "unknown user",
			req:  dto.ChangePasswordRequest{CurrentPassword: deskPassword, NewPassword: "midnight-shift"},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "current password mismatch",
			req:  dto.ChangePasswordRequest{CurrentPassword: "guess", NewPassword: "midnight-shift"},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "write failure",
			req:  dto.ChangePasswordRequest{CurrentPassword: deskPassword, NewPassword: "midnight-shift"},
			setup: func(f *authFixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(f.desk, nil)
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("deadlock detected"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setup(f)

			err := f.svc.ChangePassword(context.Background(), tt.req, f.desk.ID)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.RegisterRequest
		setup    func(t *testing.T, f *authFixture)
		wantCode int
	}{
		{
			name: "admin creates staff account",
			req:  dto.RegisterRequest{Email: "Night@Resort.test", Password: "password123"},
			setup: func(t *testing.T, f *authFixture) {
				f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.users.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, user userModel.User) error {
						assert.Equal(t, "night@resort.test", user.Email)
						assert.Equal(t, constant.RoleStaff, user.Level)
						assert.Equal(t, "admin-1", user.CreatedBy)
						assert.NoError(t, password.Verify("password123", user.Password))

						return nil
					})
			},
		},
		{
			name: "email already taken",
			req:  dto.RegisterRequest{Email: "night@resort.test", Password: "password123"},
			setup: func(_ *testing.T, f *authFixture) {
				f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "concurrent registration loses on unique index",
			req:  dto.RegisterRequest{Email: "night@resort.test", Password: "password123"},
			setup: func(_ *testing.T, f *authFixture) {
				f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(gRepo.ErrDuplicate)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "lookup failure",
			req:  dto.RegisterRequest{Email: "night@resort.test", Password: "password123"},
			setup: func(_ *testing.T, f *authFixture) {
				f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("connection refused"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setup(t, f)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
			res, err := f.svc.Register(ctx, tt.req)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "night@resort.test", res.Email)
			assert.True(t, res.Active)
		})
	}
}
