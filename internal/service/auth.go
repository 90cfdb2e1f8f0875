package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/model"
	"projecthub/internal/monitoring"
	"projecthub/internal/repository"
	"projecthub/internal/token"
	"projecthub/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// AuthService owns member records and credentials: registration, login,
// profile edits, and the password reset flows.
type AuthService struct {
	repo      repository.Repository
	mailer    Mailer
	tokens    *token.Issuer
	logger    *slog.Logger
	telemetry monitoring.Telemetry
	baseURL   string
}

func NewAuthService(repo repository.Repository, mailer Mailer, tokens *token.Issuer, logger *slog.Logger, telemetry monitoring.Telemetry, baseURL string) *AuthService {
	return &AuthService{
		repo:      repo,
		mailer:    mailer,
		tokens:    tokens,
		logger:    logger,
		telemetry: telemetry,
		baseURL:   baseURL,
	}
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Company  string
	Position string
}

// Register creates a self-service account. The first member ever created is
// promoted to admin; everyone after that starts as a plain member.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (model.Member, string, error) {
	email := normalizeEmail(params.Email)

	count, err := s.repo.CountMembers(ctx)
	if err != nil {
		return model.Member{}, "", fmt.Errorf("failed to count members: %w", err)
	}
	role := model.RoleMember
	if count == 0 {
		role = model.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Member{}, "", err
	}

	member := model.Member{
		Name:         params.Name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        params.Phone,
		Company:      params.Company,
		Position:     params.Position,
		Role:         role,
		Projects:     []primitive.ObjectID{},
		CreatedAt:    time.Now(),
	}

	id, err := s.repo.CreateMember(ctx, member)
	if err != nil {
		s.telemetry.RecordRegistration(ctx, string(role), false)
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Member{}, "", ErrMemberExists
		}
		return model.Member{}, "", err
	}
	member.ID = id
	s.telemetry.RecordRegistration(ctx, string(role), true)

	authToken, err := s.tokens.Issue(id, role)
	if err != nil {
		return model.Member{}, "", err
	}

	s.logger.InfoContext(ctx, "Member registered", "member_id", id.Hex(), "role", role)
	return member, authToken, nil
}

// Authenticate verifies credentials and issues a bearer token. Unknown email
// and wrong password collapse into the same error to avoid enumeration.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (model.Member, string, error) {
	member, err := s.repo.GetMemberByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Member{}, "", ErrInvalidCredentials
		}
		return model.Member{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return model.Member{}, "", ErrInvalidCredentials
	}

	authToken, err := s.tokens.Issue(member.ID, member.Role)
	if err != nil {
		return model.Member{}, "", err
	}

	return member, authToken, nil
}

// CurrentMember loads the account behind a bearer token.
func (s *AuthService) CurrentMember(ctx context.Context, id primitive.ObjectID) (model.Member, error) {
	member, err := s.repo.GetMemberByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Member{}, ErrMemberNotFound
	}
	return member, err
}

// RequestPasswordReset starts the self-service reset flow. The response is
// success-shaped even for unknown emails so the endpoint cannot be used to
// probe which addresses exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	member, err := s.repo.GetMemberByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.DebugContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	rawToken, err := util.RandomHex(20)
	if err != nil {
		return err
	}

	member.ResetPasswordToken = hashResetToken(rawToken)
	member.ResetPasswordExpires = time.Now().Add(resetTokenTTL)
	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.baseURL, rawToken)
	msg := Message{
		To:      member.Email,
		ToName:  member.Name,
		Kind:    "password-reset",
		Subject: "Password Reset",
		Text: fmt.Sprintf("You requested a password reset. Please go to: %s to reset your password. "+
			"This link is valid for 1 hour.", resetURL),
		HTML: fmt.Sprintf(`<p>You requested a password reset.</p>
<p>Please click the link below to reset your password:</p>
<a href=%q target="_blank">Reset Password</a>
<p>This link is valid for 1 hour.</p>
<p>If you didn't request this, please ignore this email.</p>`, resetURL),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send password reset email", "member_id", member.ID.Hex(), "error", err)
	}

	return nil
}

// ResetPassword consumes a reset token. Tokens are single use: the stored
// hash is cleared on success.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	member, err := s.repo.GetMemberByResetToken(ctx, hashResetToken(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	member.PasswordHash = string(hash)
	member.ResetPasswordToken = ""
	member.ResetPasswordExpires = time.Time{}
	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Password reset completed", "member_id", member.ID.Hex())
	return nil
}

// AdminResetPassword replaces a member's password with a generated one and
// mails it out. No confirmation step; the member is expected to change it.
func (s *AuthService) AdminResetPassword(ctx context.Context, memberID primitive.ObjectID) error {
	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	newPassword, err := util.RandomHex(8)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	member.PasswordHash = string(hash)
	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return err
	}

	msg := Message{
		To:      member.Email,
		ToName:  member.Name,
		Kind:    "password-reset",
		Subject: "Your Password Has Been Reset",
		Text: fmt.Sprintf("Hi %s,\n\nYour password has been reset by an administrator.\n\n"+
			"Your new password: %s\n\nPlease login and change your password.\n", member.Name, newPassword),
		HTML: fmt.Sprintf(`<h2>Password Reset</h2>
<p>Hi %s,</p>
<p>Your password has been reset by an administrator.</p>
<p><strong>Your new password:</strong> %s</p>
<p>Please login and change your password.</p>`, member.Name, newPassword),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send admin reset email", "member_id", member.ID.Hex(), "error", err)
	}

	return nil
}

type CreateMemberParams struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Position string
	Role     model.Role
}

// CreateMember is the admin-initiated path: the account gets a generated
// password which is mailed to the new member.
func (s *AuthService) CreateMember(ctx context.Context, params CreateMemberParams) (model.Member, error) {
	password, err := util.RandomHex(8)
	if err != nil {
		return model.Member{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Member{}, err
	}

	role := params.Role
	if role == "" {
		role = model.RoleMember
	}

	member := model.Member{
		Name:         params.Name,
		Email:        normalizeEmail(params.Email),
		PasswordHash: string(hash),
		Phone:        params.Phone,
		Company:      params.Company,
		Position:     params.Position,
		Role:         role,
		Projects:     []primitive.ObjectID{},
		CreatedAt:    time.Now(),
	}

	id, err := s.repo.CreateMember(ctx, member)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Member{}, ErrMemberExists
		}
		return model.Member{}, err
	}
	member.ID = id

	msg := Message{
		To:      member.Email,
		ToName:  member.Name,
		Kind:    "welcome",
		Subject: "Welcome to Project Management System",
		Text: fmt.Sprintf("Hi %s,\n\nYou have been added to the Project Management System.\n\n"+
			"Your login credentials:\nEmail: %s\nPassword: %s\n\nPlease login and change your password.\n",
			member.Name, member.Email, password),
		HTML: fmt.Sprintf(`<h2>Welcome to Project Management System</h2>
<p>Hi %s,</p>
<p>You have been added to the Project Management System.</p>
<p><strong>Your login credentials:</strong><br>
Email: %s<br>
Password: %s</p>
<p>Please login and change your password.</p>`, member.Name, member.Email, password),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send welcome email", "member_id", member.ID.Hex(), "error", err)
	}

	return member, nil
}

type UpdateProfileParams struct {
	Name     *string
	Email    *string
	Phone    *string
	Company  *string
	Position *string
	Role     *model.Role
}

// UpdateProfile applies a partial edit to a member record. Project list
// changes are not handled here; they go through the membership service.
func (s *AuthService) UpdateProfile(ctx context.Context, memberID primitive.ObjectID, params UpdateProfileParams) (model.Member, error) {
	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Member{}, ErrMemberNotFound
		}
		return model.Member{}, err
	}

	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		if email != member.Email {
			if _, err := s.repo.GetMemberByEmail(ctx, email); err == nil {
				return model.Member{}, ErrMemberExists
			} else if !errors.Is(err, repository.ErrNotFound) {
				return model.Member{}, err
			}
			member.Email = email
		}
	}
	if params.Name != nil {
		member.Name = *params.Name
	}
	if params.Phone != nil {
		member.Phone = *params.Phone
	}
	if params.Company != nil {
		member.Company = *params.Company
	}
	if params.Position != nil {
		member.Position = *params.Position
	}
	if params.Role != nil {
		member.Role = *params.Role
	}

	if err := s.repo.UpdateMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Member{}, ErrMemberExists
		}
		return model.Member{}, err
	}

	return member, nil
}

// ListMembers returns every account, sorted by name.
func (s *AuthService) ListMembers(ctx context.Context) ([]model.Member, error) {
	return s.repo.ListMembers(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
