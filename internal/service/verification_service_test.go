package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"bookline/internal/domain"
)

func TestVerificationServiceIssueToken(t *testing.T) {
	t.Parallel()

	var created *domain.VerificationToken
	tokens := &fakeTokenRepo{
		createFn: func(ctx context.Context, token *domain.VerificationToken) error {
			created = token
			return nil
		},
	}

	svc, err := NewVerificationService(tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerificationService() error = %v", err)
	}
	baseNow := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return baseNow }
	svc.newToken = func() string { return "tok-1" }

	token, err := svc.IssueToken(context.Background(), "subject-1", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if created == nil {
		t.Fatal("token should be persisted")
	}
	if token.Status != domain.TokenIssued {
		t.Fatalf("status = %s, want ISSUED", token.Status)
	}
	wantExpiry := baseNow.UTC().Add(domain.DefaultTokenTTL)
	if !token.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiresAt = %v, want %v", token.ExpiresAt, wantExpiry)
	}
}

func TestVerificationServiceConsumeToken(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	state := &domain.VerificationToken{
		Token:     "tok-1",
		SubjectID: "subject-1",
		Purpose:   domain.PurposeEmailVerification,
		Status:    domain.TokenIssued,
		ExpiresAt: baseNow.Add(time.Hour),
	}

	tokens := &fakeTokenRepo{
		consumeFn: func(ctx context.Context, token string, consumedAt time.Time) error {
			if state.Status != domain.TokenIssued {
				return domain.ErrConflict
			}
			state.Status = domain.TokenConsumed
			state.ConsumedAt = &consumedAt
			return nil
		},
		getByTokenFn: func(ctx context.Context, token string) (*domain.VerificationToken, error) {
			copied := *state
			return &copied, nil
		},
	}

	svc, err := NewVerificationService(tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerificationService() error = %v", err)
	}
	svc.now = func() time.Time { return baseNow }

	token, err := svc.ConsumeToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("ConsumeToken() error = %v", err)
	}
	if token.Status != domain.TokenConsumed {
		t.Fatalf("status = %s, want CONSUMED", token.Status)
	}

	// Second submission loses the conditional transition and observes the
	// consumed state.
	token, err = svc.ConsumeToken(context.Background(), "tok-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if token == nil || token.Status != domain.TokenConsumed {
		t.Fatalf("token = %v, want current CONSUMED state returned", token)
	}
}

func TestVerificationServiceConsumeTokenConcurrent(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	var mu sync.Mutex
	state := &domain.VerificationToken{
		Token:     "tok-race",
		SubjectID: "subject-1",
		Purpose:   domain.PurposeEmailVerification,
		Status:    domain.TokenIssued,
		ExpiresAt: baseNow.Add(time.Hour),
	}

	tokens := &fakeTokenRepo{
		consumeFn: func(ctx context.Context, token string, consumedAt time.Time) error {
			mu.Lock()
			defer mu.Unlock()
			if state.Status != domain.TokenIssued {
				return domain.ErrConflict
			}
			state.Status = domain.TokenConsumed
			return nil
		},
		getByTokenFn: func(ctx context.Context, token string) (*domain.VerificationToken, error) {
			mu.Lock()
			defer mu.Unlock()
			copied := *state
			return &copied, nil
		},
	}

	svc, err := NewVerificationService(tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerificationService() error = %v", err)
	}
	svc.now = func() time.Time { return baseNow }

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConsumeToken(context.Background(), "tok-race")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	conflicted := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if conflicted != callers-1 {
		t.Fatalf("conflicted = %d, want %d", conflicted, callers-1)
	}
}

func TestVerificationServiceConsumeExpiredToken(t *testing.T) {
	t.Parallel()

	baseNow := time.Unix(1_700_000_000, 0)
	tokens := &fakeTokenRepo{
		consumeFn: func(ctx context.Context, token string, consumedAt time.Time) error {
			return domain.ErrConflict
		},
		getByTokenFn: func(ctx context.Context, token string) (*domain.VerificationToken, error) {
			return &domain.VerificationToken{
				Token:     token,
				SubjectID: "subject-1",
				Purpose:   domain.PurposeEmailVerification,
				Status:    domain.TokenIssued,
				ExpiresAt: baseNow.Add(-time.Minute),
			}, nil
		},
	}

	svc, err := NewVerificationService(tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerificationService() error = %v", err)
	}
	svc.now = func() time.Time { return baseNow }

	_, err = svc.ConsumeToken(context.Background(), "tok-stale")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestVerificationServiceConsumeUnknownToken(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokenRepo{
		consumeFn: func(ctx context.Context, token string, consumedAt time.Time) error {
			return domain.ErrNotFound
		},
	}

	svc, err := NewVerificationService(tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewVerificationService() error = %v", err)
	}

	_, err = svc.ConsumeToken(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
