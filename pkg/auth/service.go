package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
	"github.com/shelfwise/shelfwise/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing.
const BcryptCost = 10

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles authentication operations.
type Service struct {
	db               *bun.DB
	jwtSecret        []byte
	tokenExpiry      time.Duration
	resetTokenExpiry time.Duration
}

// NewService creates a new auth service.
func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{
		db:               db,
		jwtSecret:        []byte(cfg.JWTSecret),
		tokenExpiry:      cfg.SessionExpiry,
		resetTokenExpiry: cfg.PasswordResetExpiry,
	}
}

// TokenExpiry is how long issued session tokens stay valid.
func (s *Service) TokenExpiry() time.Duration {
	return s.tokenExpiry
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	Name     string
	Email    string
	Password string
	// Role is a role name. An empty role means borrower.
	Role string
}

// CreateUser creates an active user with a hashed password.
func (s *Service) CreateUser(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ? COLLATE NOCASE", opts.Email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.Conflict("User with this email already exists")
	}

	if opts.Role == "" {
		opts.Role = models.RoleBorrower
	}
	role, err := s.RoleByName(ctx, opts.Role)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         opts.Name,
		Email:        strings.ToLower(opts.Email),
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}
	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// RoleByName looks up a role by its name.
func (s *Service) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := s.db.NewSelect().
		Model(role).
		Where("name = ? COLLATE NOCASE", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.ValidationError("Invalid role: " + name)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return role, nil
}

// Authenticate validates credentials and returns the user if valid.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.email = ? COLLATE NOCASE", email).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	return user, nil
}

// GenerateToken creates a new JWT token for the user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Role:   user.RoleName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetUserByID retrieves an active user by ID with its role and permissions.
func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.id = ?", id).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the user with the given
// email. Only a hash of the token is stored.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.email = ? COLLATE NOCASE", email).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errcodes.NotFound("User")
	}
	if err != nil {
		return "", errors.WithStack(err)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	hash := hashResetToken(token)
	expiresAt := time.Now().Add(s.resetTokenExpiry)

	user.ResetTokenHash = &hash
	user.ResetTokenExpiresAt = &expiresAt
	user.UpdatedAt = time.Now()
	_, err = s.db.NewUpdate().
		Model(user).
		Column("reset_token_hash", "reset_token_expires_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return token, nil
}

// ValidateResetToken returns the user the token was issued to, as long as the
// token hasn't expired or been used.
func (s *Service) ValidateResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errcodes.InvalidResetToken()
	}

	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.reset_token_hash = ?", hashResetToken(token)).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.InvalidResetToken()
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if user.ResetTokenExpiresAt == nil || !time.Now().Before(*user.ResetTokenExpiresAt) {
		return nil, errcodes.InvalidResetToken()
	}
	return user, nil
}

// ResetPassword sets a new password using a reset token and consumes the
// token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("reset_token_hash = NULL").
		Set("reset_token_expires_at = NULL").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
