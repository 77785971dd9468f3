package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resort/infras/jwt"
	"resort/internal/domains/auth/model/dto"
	"resort/shared/constant"
)

func TestLoginResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    900,
	}

	var response dto.LoginResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, int64(900), response.ExpiresIn)
}

func TestRefreshTokenResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
	}

	var response dto.RefreshTokenResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
}

func TestRegisterRequest_ToUserModel(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.RegisterRequest
		wantLevel string
	}{
		{
			name:      "defaults to staff",
			req:       dto.RegisterRequest{Email: " Front.Desk@Resort.com ", Password: "irrelevant"},
			wantLevel: constant.RoleStaff,
		},
		{
			name:      "explicit admin",
			req:       dto.RegisterRequest{Email: "owner@resort.com", Level: constant.RoleAdmin},
			wantLevel: constant.RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.req.ToUserModel("admin-1", "hashed")

			assert.NotEmpty(t, user.ID)
			assert.Equal(t, tt.wantLevel, user.Level)
			assert.Equal(t, "hashed", user.Password)
			assert.True(t, user.Active)
			assert.Equal(t, "admin-1", user.CreatedBy)
		})
	}

	user := tests[0].req.ToUserModel("admin-1", "hashed")
	assert.Equal(t, "front.desk@resort.com", user.Email)
}
