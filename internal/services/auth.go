package services

import (
	"context"
	"errors"
	"time"

	"recipeshare/internal/database"
	"recipeshare/internal/logging"
	"recipeshare/internal/middleware"
	"recipeshare/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	tracer              = otel.Tracer("recipeshare")
	meter               = otel.Meter("recipeshare")
	registrationCounter metric.Int64Counter
	loginCounter        metric.Int64Counter
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	jwtSecret    string
	jwtExpiresIn time.Duration
}

func NewAuthService(jwtSecret string, jwtExpiresIn time.Duration) *AuthService {
	var err error
	registrationCounter, err = meter.Int64Counter(
		"auth.registration.total",
		metric.WithDescription("Total number of user registrations"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create registration counter")
	}

	loginCounter, err = meter.Int64Counter(
		"auth.login.attempts",
		metric.WithDescription("Total number of login attempts"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create login counter")
	}

	return &AuthService{
		jwtSecret:    jwtSecret,
		jwtExpiresIn: jwtExpiresIn,
	}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  models.UserResponse `json:"user"`
	Token string              `json:"token"`
}

func (input RegisterInput) validate() FieldErrors {
	fieldErrs := FieldErrors{}
	if input.Email == "" {
		fieldErrs.add("email", "this field is required")
	}
	if input.Username == "" {
		fieldErrs.add("username", "this field is required")
	}
	if input.FirstName == "" {
		fieldErrs.add("first_name", "this field is required")
	}
	if input.LastName == "" {
		fieldErrs.add("last_name", "this field is required")
	}
	switch {
	case input.Password == "":
		fieldErrs.add("password", "this field is required")
	case len(input.Password) < 6:
		fieldErrs.add("password", "password must be at least 6 characters")
	}
	return fieldErrs
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer span.End()

	span.SetAttributes(attribute.String("user.email", input.Email))

	fieldErrs := input.validate()

	var count int64
	if err := database.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if input.Email != "" && count > 0 {
		fieldErrs.add("email", "user with this email already exists")
	}

	if err := database.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if input.Username != "" && count > 0 {
		fieldErrs.add("username", "user with this username already exists")
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashedPassword),
	}

	if err := database.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	if registrationCounter != nil {
		registrationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("success", true),
		))
	}

	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))

	logging.Info(ctx).
		Uint("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	span.SetAttributes(attribute.String("user.email", input.Email))

	if loginCounter != nil {
		loginCounter.Add(ctx, 1)
	}

	var user models.User
	if err := database.DB.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetAttributes(attribute.Bool("login.success", false))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		span.SetAttributes(attribute.Bool("login.success", false))
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("user.id", int64(user.ID)),
		attribute.Bool("login.success", true),
	)

	logging.Info(ctx).
		Uint("user_id", user.ID).
		Str("email", user.Email).
		Msg("user logged in")

	return &AuthResponse{
		User:  user.ToResponse(false),
		Token: token,
	}, nil
}

type SetPasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *AuthService) SetPassword(ctx context.Context, userID uint, input SetPasswordInput) error {
	ctx, span := tracer.Start(ctx, "auth.set_password")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	fieldErrs := FieldErrors{}
	if input.CurrentPassword == "" {
		fieldErrs.add("current_password", "this field is required")
	}
	switch {
	case input.NewPassword == "":
		fieldErrs.add("new_password", "this field is required")
	case len(input.NewPassword) < 6:
		fieldErrs.add("new_password", "password must be at least 6 characters")
	}
	if len(fieldErrs) > 0 {
		return fieldErrs
	}

	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := database.DB.WithContext(ctx).Model(&user).
		Update("password_hash", string(hashedPassword)).Error; err != nil {
		return err
	}

	logging.Info(ctx).Uint("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := middleware.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
