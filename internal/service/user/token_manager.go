package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// maxResetAttempts is how many wrong codes a user may submit before every
// outstanding reset code of that user is revoked.
const maxResetAttempts = 5

type tokenManager struct {
	repo tokenrepo.Repository
	now  func() time.Time

	mu            sync.Mutex
	resetFailures map[string]int
}

func newTokenManager(repo tokenrepo.Repository, now func() time.Time) *tokenManager {
	return &tokenManager{repo: repo, now: now, resetFailures: make(map[string]int)}
}

// IssueAccess stores and returns a fresh opaque bearer token.
func (m *tokenManager) IssueAccess(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      tokenrepo.KindAccess,
			ExpiresAt: m.now().Add(ttl),
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// ValidateAccess returns the owner of a live access token.
func (m *tokenManager) ValidateAccess(ctx context.Context, token string) (string, bool) {
	meta, err := m.repo.Get(ctx, token)
	if err != nil || meta.Kind != tokenrepo.KindAccess {
		return "", false
	}
	if m.now().After(meta.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return "", false
	}
	return meta.UserID, true
}

// IssueResetCode replaces any outstanding reset code of the user with a new
// six-digit one.
func (m *tokenManager) IssueResetCode(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if err := m.repo.DeleteByUser(ctx, userID, tokenrepo.KindReset); err != nil {
		return "", err
	}
	m.forgetFailures(userID)
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	err = m.repo.Create(ctx, tokenrepo.Token{
		Token:     resetKey(userID, code),
		UserID:    userID,
		Kind:      tokenrepo.KindReset,
		ExpiresAt: m.now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ConsumeResetCode checks code and, when it is live, invalidates every reset
// code of the user. It reports true only once the codes are gone, so a code
// whose invalidation failed cannot be accepted. After maxResetAttempts wrong
// codes the outstanding ones are revoked.
func (m *tokenManager) ConsumeResetCode(ctx context.Context, userID, code string) (bool, error) {
	meta, err := m.repo.Get(ctx, resetKey(userID, code))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if err != nil || meta.Kind != tokenrepo.KindReset || meta.UserID != userID {
		return false, m.recordFailure(ctx, userID)
	}
	if err := m.repo.DeleteByUser(ctx, userID, tokenrepo.KindReset); err != nil {
		return false, fmt.Errorf("invalidate reset codes: %w", err)
	}
	m.forgetFailures(userID)
	return !m.now().After(meta.ExpiresAt), nil
}

func (m *tokenManager) recordFailure(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.resetFailures[userID]++
	exhausted := m.resetFailures[userID] >= maxResetAttempts
	m.mu.Unlock()
	if !exhausted {
		return nil
	}
	if err := m.repo.DeleteByUser(ctx, userID, tokenrepo.KindReset); err != nil {
		return fmt.Errorf("revoke reset codes: %w", err)
	}
	m.forgetFailures(userID)
	return nil
}

func (m *tokenManager) forgetFailures(userID string) {
	m.mu.Lock()
	delete(m.resetFailures, userID)
	m.mu.Unlock()
}

func resetKey(userID, code string) string {
	return "reset:" + userID + ":" + code
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
