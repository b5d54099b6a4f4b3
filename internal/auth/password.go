package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"zenbudget/internal/store"
)

const (
	MinPasswordLength = 6

	maxFailedAttempts = 5
	lockoutWindow     = 15 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type failures struct {
	count int
	first time.Time
}

// PasswordProvider authenticates email/password accounts stored as bcrypt
// hashes. Repeated failures for an address lock it for a while.
type PasswordProvider struct {
	creds store.Credentials
	cost  int
	now   func() time.Time

	mu       sync.Mutex
	attempts map[string]*failures
}

func NewPasswordProvider(creds store.Credentials) *PasswordProvider {
	return &PasswordProvider{
		creds:    creds,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		attempts: make(map[string]*failures),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and returns its new identity.
func (p *PasswordProvider) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = normalizeEmail(email)
	if !ValidEmail(email) {
		return Identity{}, newError(CodeInvalidEmail, nil)
	}
	if len(password) < MinPasswordLength {
		return Identity{}, newError(CodeWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Identity{}, err
	}
	cred := store.Credential{Email: email, UID: uuid.NewString(), PasswordHash: string(hash)}
	if err := p.creds.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return Identity{}, newError(CodeEmailAlreadyInUse, nil)
		}
		return Identity{}, err
	}
	return Identity{UID: cred.UID, DisplayName: strings.TrimSpace(displayName), Email: email}, nil
}

// SignIn checks the password for email. The returned identity carries no
// display name; it lives in the user's profile.
func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Identity{}, newError(CodeInvalidCredential, nil)
	}
	if !ValidEmail(email) {
		return Identity{}, newError(CodeInvalidEmail, nil)
	}
	if p.locked(email) {
		return Identity{}, newError(CodeTooManyRequests, nil)
	}
	cred, err := p.creds.GetCredential(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, newError(CodeUserNotFound, nil)
	}
	if err != nil {
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		p.fail(email)
		return Identity{}, newError(CodeWrongPassword, nil)
	}
	p.reset(email)
	return Identity{UID: cred.UID, Email: cred.Email}, nil
}

func (p *PasswordProvider) locked(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.attempts[email]
	if !ok {
		return false
	}
	if p.now().Sub(f.first) > lockoutWindow {
		delete(p.attempts, email)
		return false
	}
	return f.count >= maxFailedAttempts
}

func (p *PasswordProvider) fail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.attempts[email]
	if !ok {
		f = &failures{first: p.now()}
		p.attempts[email] = f
	}
	f.count++
}

func (p *PasswordProvider) reset(email string) {
	p.mu.Lock()
	delete(p.attempts, email)
	p.mu.Unlock()
}
