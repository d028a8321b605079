package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telemed/internal/docstore"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accountsCollection = "authAccounts"
	bcryptCost         = 12
)

// Claims is the token payload: subject id plus the verified-email flag and
// role claim the authorization layer keys on.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// StoreProvider implements Provider with account records in the document
// store and HS256 bearer tokens. Disabling an account stops token issuance;
// already-issued tokens stay valid until they expire.
type StoreProvider struct {
	store    docstore.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewStoreProvider builds a provider signing tokens with secret.
func NewStoreProvider(store docstore.Store, secret string, tokenTTL time.Duration, logger *zap.Logger) *StoreProvider {
	return &StoreProvider{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func accountPath(id string) string {
	return docstore.Join(accountsCollection, id)
}

func recordFromSnapshot(snap *docstore.Snapshot) *Record {
	rec := &Record{ID: snap.ID}
	rec.Email, _ = snap.Data["email"].(string)
	rec.EmailVerified, _ = snap.Data["emailVerified"].(bool)
	rec.Disabled, _ = snap.Data["disabled"].(bool)
	rec.Role, _ = snap.Data["role"].(string)
	return rec
}

func (p *StoreProvider) Create(ctx context.Context, email, password string, emailVerified bool) (*Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := p.LookupByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := docstore.NewID()
	err = p.store.Create(ctx, accountPath(id), docstore.Document{
		"email":         email,
		"passwordHash":  string(hash),
		"emailVerified": emailVerified,
		"disabled":      false,
		"role":          "",
	})
	if err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
		}
		return nil, err
	}
	p.logger.Info("auth account created", zap.String("id", id), zap.String("email", email))
	return &Record{ID: id, Email: email, EmailVerified: emailVerified}, nil
}

func (p *StoreProvider) IssueToken(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	snap, err := p.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	rec := recordFromSnapshot(snap)
	if rec.Disabled {
		return "", ErrAccountDisabled
	}
	hash, _ := snap.Data["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Email:         rec.Email,
		EmailVerified: rec.EmailVerified,
		Role:          rec.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (p *StoreProvider) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{
		SubjectID:     claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Role:          claims.Role,
	}, nil
}

func (p *StoreProvider) Lookup(ctx context.Context, id string) (*Record, error) {
	snap, err := p.store.Get(ctx, accountPath(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return recordFromSnapshot(snap), nil
}

func (p *StoreProvider) LookupByEmail(ctx context.Context, email string) (*Record, error) {
	snap, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return recordFromSnapshot(snap), nil
}

func (p *StoreProvider) findByEmail(ctx context.Context, email string) (*docstore.Snapshot, error) {
	snaps, err := p.store.Query(ctx, accountsCollection, docstore.Query{
		Field:  "email",
		Equals: strings.ToLower(strings.TrimSpace(email)),
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	return snaps[0], nil
}

func (p *StoreProvider) SetRole(ctx context.Context, id, role string) error {
	err := p.store.Update(ctx, accountPath(id), docstore.Document{"role": role}, docstore.None())
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (p *StoreProvider) Disable(ctx context.Context, id string) error {
	err := p.store.Update(ctx, accountPath(id), docstore.Document{"disabled": true}, docstore.None())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	p.logger.Info("auth account disabled", zap.String("id", id))
	return nil
}
