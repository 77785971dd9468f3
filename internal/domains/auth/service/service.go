package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Auth=MockAuthService

import (
	"context"
	"errors"
	"fmt"

	"resort/config"
	"resort/infras/jwt"
	"resort/infras/otel"
	"resort/internal/domains/auth/model/dto"
	userModel "resort/internal/domains/user/model"
	userDto "resort/internal/domains/user/model/dto"
	userRepo "resort/internal/domains/user/repository"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/password"
	gRepo "resort/shared/repository"
	"resort/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgEmailTaken         = "email already registered"
	msgDeactivated        = "user account is deactivated"
	msgInvalidRefresh     = "invalid refresh token"
	msgWrongPassword      = "current password is incorrect"
	msgUserNotFound       = "user not found"
)

// Auth manages staff accounts and their tokens. Guests never authenticate.
type Auth interface {
	// Register creates a staff account. Only admins reach it.
	Register(ctx context.Context, req dto.RegisterRequest) (userDto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) error
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (res userDto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	taken, err := s.userRepo.Exist(ctx, userRepo.ByEmail(userModel.NormalizeEmail(req.Email)))
	if err != nil {
		return res, fmt.Errorf("failed to check email availability: %w", err)
	}

	if taken {
		return res, failure.Conflict(msgEmailTaken) // nolint:wrapcheck
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return res, fmt.Errorf("failed to hash password: %w", err)
	}

	creator := actor(ctx)
	user := req.ToUserModel(creator, hash)

	err = s.userRepo.Insert(ctx, user)
	if errors.Is(err, gRepo.ErrDuplicate) {
		return res, failure.Conflict(msgEmailTaken) // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to create user")

		return res, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("level", user.Level).Str("created_by", creator).Msg("staff account created")

	res.FromModel(user)

	return res, nil
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	byEmail := userRepo.ByEmail(userModel.NormalizeEmail(req.Email))

	user, found, err := s.lookup(ctx, byEmail)
	if err != nil {
		return res, err
	}

	// unknown email and wrong password are indistinguishable to the caller
	if !found || password.Verify(req.Password, user.Password) != nil {
		log.Warn().Str("email", req.Email).Bool("known", found).Msg("rejected login attempt")

		return res, failure.Unauthorized(msgInvalidCredentials) // nolint:wrapcheck
	}

	if !user.Active {
		return res, failure.Forbidden(msgDeactivated) // nolint:wrapcheck
	}

	pair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Email, user.Level)
	if err != nil {
		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.touchLastLogin(ctx, &user, byEmail)

	res.FromTokenPair(pair)
	res.User.FromModel(user)

	return res, nil
}

func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	pair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token rejected")

		return res, failure.Unauthorized(msgInvalidRefresh) // nolint:wrapcheck
	}

	res.FromTokenPair(pair)

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ChangePassword")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	byID := shared.ByID(userID, userModel.FieldID, userModel.TableName)

	user, found, err := s.lookup(ctx, byID)
	if err != nil {
		return err
	}

	if !found {
		return failure.NotFound(msgUserNotFound) // nolint:wrapcheck
	}

	if password.Verify(req.CurrentPassword, user.Password) != nil {
		return failure.BadRequestFromString(msgWrongPassword) // nolint:wrapcheck
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	fields := shared.ChangedFields(dto.UpdatePasswordRequest{Password: hash}, userID)
	if err = s.userRepo.Update(ctx, fields, byID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("password changed")

	return nil
}

func (s *serviceImpl) lookup(ctx context.Context, filter gDto.FilterGroup) (userModel.User, bool, error) {
	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to load user")

		return user, false, fmt.Errorf("failed to load user: %w", err)
	}

	return user, user.ID != constant.Empty, nil
}

// touchLastLogin is best effort; a failed write never blocks a successful login.
func (s *serviceImpl) touchLastLogin(ctx context.Context, user *userModel.User, filter gDto.FilterGroup) {
	at := timezone.Now()
	fields := shared.ChangedFields(dto.UpdateLastLoginRequest{LastLogin: at}, user.ID)

	if err := s.userRepo.Update(ctx, fields, filter); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")

		return
	}

	user.LastLogin = &at
}

func actor(ctx context.Context) string {
	if id, _ := ctx.Value(constant.ContextKeyUserID).(string); id != constant.Empty {
		return id
	}

	return constant.ContextSystem
}
