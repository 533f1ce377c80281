package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gizihub/gizihub/internal/shared"
)

// Auditor records audit trail entries.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements account management on top of the repository.
type Service struct {
	repo     Repository
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Create registers a new account. The password is hashed with bcrypt before
// anything touches storage.
func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	if err := s.validate.Struct(req); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, User{
		TenantID:     req.TenantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, "user.create", user.ID, map[string]any{"email": user.Email})
	return user, nil
}

// Get fetches one user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// GetByEmail fetches one user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// List returns the users in one scope. Pass nil for platform staff.
func (s *Service) List(ctx context.Context, tenantID *int64) ([]User, error) {
	return s.repo.List(ctx, tenantID)
}

// AssignRole hands a role to a user. A tenant user may only hold roles owned
// by its own tenant; platform users only hold system roles.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	scope, err := s.repo.RoleScope(ctx, roleID)
	if err != nil {
		return err
	}
	if !sameScope(user.TenantID, scope) {
		return ErrScopeMismatch
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, "user.assign_role", userID, map[string]any{"role_id": roleID})
	return nil
}

// RemoveRole takes a role away from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, "user.remove_role", userID, map[string]any{"role_id": roleID})
	return nil
}

// RoleIDs returns the role ids held by a user. It satisfies the role source
// the authorization middleware consumes.
func (s *Service) RoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.RoleIDs(ctx, userID)
}

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) recordAudit(ctx context.Context, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Action:        action,
		Entity:        "users",
		EntityID:      strconv.FormatInt(userID, 10),
		CorrelationID: uuid.New(),
		Meta:          meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
