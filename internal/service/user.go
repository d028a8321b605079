package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"telemed/internal/auth"
	"telemed/internal/config"
	"telemed/internal/docstore"
	"telemed/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// UserService manages user profiles and their auth accounts. Profiles are
// owned here; the visit lifecycle only reads them.
type UserService struct {
	store    docstore.Store
	provider auth.Provider
	cfg      *config.Config
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(store docstore.Store, provider auth.Provider, cfg *config.Config, logger *zap.Logger) *UserService {
	return &UserService{store: store, provider: provider, cfg: cfg, logger: logger}
}

func profilePath(uid string) string {
	return docstore.Join("users", uid)
}

// RegisterSelf registers the calling identity as an active patient.
func (s *UserService) RegisterSelf(ctx context.Context, identity auth.Identity, firstName, lastName string) (*model.UserResponse, error) {
	user := &model.User{
		FirstName: firstName,
		LastName:  lastName,
		Status:    model.UserStatusActive,
		Role:      model.RolePatient,
	}
	if err := s.normalizeProfile(user); err != nil {
		return nil, err
	}
	rec, err := s.provider.Lookup(ctx, identity.SubjectID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, identity.SubjectID)
		}
		return nil, err
	}
	if err := s.register(ctx, rec, user); err != nil {
		return nil, err
	}
	return &model.UserResponse{UserID: rec.ID, User: user}, nil
}

// RegisterByUserID registers a profile for an existing auth account.
func (s *UserService) RegisterByUserID(ctx context.Context, uid string, user *model.User) (*model.UserResponse, error) {
	if err := s.normalizeProfile(user); err != nil {
		return nil, err
	}
	rec, err := s.provider.Lookup(ctx, uid)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, uid)
		}
		return nil, err
	}
	if err := s.register(ctx, rec, user); err != nil {
		return nil, err
	}
	return &model.UserResponse{UserID: rec.ID, User: user}, nil
}

// RegisterByEmail registers a profile for the account holding the email.
func (s *UserService) RegisterByEmail(ctx context.Context, email string, user *model.User) (*model.UserResponse, error) {
	if err := s.normalizeProfile(user); err != nil {
		return nil, err
	}
	rec, err := s.provider.LookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: account for %s", ErrNotFound, email)
		}
		return nil, err
	}
	if err := s.register(ctx, rec, user); err != nil {
		return nil, err
	}
	return &model.UserResponse{UserID: rec.ID, User: user}, nil
}

// CreateUser creates a fresh auth account plus its profile. An InActive
// profile status disables the account once registration completes.
func (s *UserService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.UserResponse, error) {
	user := req.User
	if err := s.normalizeProfile(&user); err != nil {
		return nil, err
	}
	emailVerified := req.EmailVerified != nil && *req.EmailVerified
	rec, err := s.provider.Create(ctx, req.Email, req.Password, emailVerified)
	if err != nil {
		return nil, err
	}
	if err := s.register(ctx, rec, &user); err != nil {
		return nil, err
	}
	if user.Status == model.UserStatusInActive {
		if err := s.provider.Disable(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return &model.UserResponse{UserID: rec.ID, User: &user}, nil
}

// register writes the profile document and stamps the role claim.
func (s *UserService) register(ctx context.Context, rec *auth.Record, user *model.User) error {
	if rec.Disabled {
		return fmt.Errorf("%w: %s", ErrAccountDisabled, rec.ID)
	}
	if err := s.store.Create(ctx, profilePath(rec.ID), user.Document()); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, rec.ID)
		}
		return err
	}
	if ctx.Err() != nil {
		return ErrIndeterminate
	}
	roleName, _ := model.UserRoles.Encode(user.Role)
	if err := s.provider.SetRole(ctx, rec.ID, roleName); err != nil {
		return err
	}
	s.logger.Info("user registered",
		zap.String("uid", rec.ID), zap.Stringer("role", user.Role))
	return nil
}

// UpdateNames patches the caller's profile names; nil fields are untouched.
func (s *UserService) UpdateNames(ctx context.Context, uid string, firstName, lastName *string) error {
	patch := docstore.Document{}
	if firstName != nil {
		name, err := s.normalizeName(*firstName)
		if err != nil {
			return fmt.Errorf("%w: firstName", err)
		}
		patch["firstName"] = name
	}
	if lastName != nil {
		name, err := s.normalizeName(*lastName)
		if err != nil {
			return fmt.Errorf("%w: lastName", err)
		}
		patch["lastName"] = name
	}
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty patch", ErrInvalidName)
	}
	if err := s.store.Update(ctx, profilePath(uid), patch, docstore.None()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotRegistered
		}
		return err
	}
	return nil
}

// GetRole reports the account's role claim; Role is nil when none is set.
func (s *UserService) GetRole(ctx context.Context, uid string) (*model.UserRoleResponse, error) {
	rec, err := s.provider.Lookup(ctx, uid)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, uid)
		}
		return nil, err
	}
	resp := &model.UserRoleResponse{UserID: uid}
	if rec.Role != "" {
		role, err := model.UserRoles.Decode(rec.Role)
		if err != nil {
			return nil, err
		}
		resp.Role = &role
	}
	return resp, nil
}

// SetRole replaces the account's role claim and keeps the profile's role
// field in step. A missing profile is tolerated; the claim still changes.
func (s *UserService) SetRole(ctx context.Context, uid string, role model.UserRole) (*model.UserRoleResponse, error) {
	if _, err := s.provider.Lookup(ctx, uid); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, uid)
		}
		return nil, err
	}
	roleName, _ := model.UserRoles.Encode(role)
	if err := s.provider.SetRole(ctx, uid, roleName); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, profilePath(uid), docstore.Document{"role": roleName}, docstore.None())
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	if errors.Is(err, docstore.ErrNotFound) {
		s.logger.Debug("no profile to update on role change", zap.String("uid", uid))
	}
	s.logger.Info("role changed", zap.String("uid", uid), zap.String("role", roleName))
	return &model.UserRoleResponse{UserID: uid, Role: &role}, nil
}

// Deactivate performs the logical delete: profile status goes InActive and
// the auth account is disabled.
func (s *UserService) Deactivate(ctx context.Context, uid string) error {
	if _, err := s.provider.Lookup(ctx, uid); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return fmt.Errorf("%w: account %s", ErrNotFound, uid)
		}
		return err
	}
	inactive, _ := model.UserStatuses.Encode(model.UserStatusInActive)
	err := s.store.Update(ctx, profilePath(uid), docstore.Document{"status": inactive}, docstore.None())
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return err
	}
	if errors.Is(err, docstore.ErrNotFound) {
		s.logger.Debug("no profile to deactivate", zap.String("uid", uid))
	}
	if ctx.Err() != nil {
		return ErrIndeterminate
	}
	if err := s.provider.Disable(ctx, uid); err != nil {
		return err
	}
	s.logger.Info("user deactivated", zap.String("uid", uid))
	return nil
}

func (s *UserService) normalizeProfile(user *model.User) error {
	first, err := s.normalizeName(user.FirstName)
	if err != nil {
		return fmt.Errorf("%w: firstName", err)
	}
	last, err := s.normalizeName(user.LastName)
	if err != nil {
		return fmt.Errorf("%w: lastName", err)
	}
	user.FirstName = first
	user.LastName = last
	return nil
}

// normalizeName applies NFKC, trims whitespace, strips control characters
// and enforces the configured length bounds.
func (s *UserService) normalizeName(input string) (string, error) {
	out := norm.NFKC.String(input)
	out = strings.TrimSpace(out)
	out = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, out)
	if n := utf8.RuneCountInString(out); n < 1 || n > s.cfg.Users.NameMaxLength {
		return "", ErrInvalidName
	}
	return out, nil
}
