package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/testutil"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newOTPFixture(t *testing.T) (*OTPService, *testutil.UserRepo, *fakeClock, string) {
	t.Helper()
	repo := testutil.NewUserRepo()
	user := &domain.User{Name: "Alice", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), user))

	clock := newFakeClock()
	svc := NewOTPService(repo, 0)
	svc.now = clock.Now
	return svc, repo, clock, user.ID
}

func TestOTPService_IssueSetsPendingPair(t *testing.T) {
	svc, repo, clock, id := newOTPFixture(t)

	code, exp, err := svc.Issue(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, clock.Now().Add(10*time.Minute), exp)

	stored, _ := repo.Stored(id)
	require.True(t, stored.HasPendingOTP())
	assert.Equal(t, code, *stored.OTPCode)
	assert.Equal(t, exp, *stored.OTPExpires)
}

func TestOTPService_IssueUnknownUser(t *testing.T) {
	svc, _, _, _ := newOTPFixture(t)

	_, _, err := svc.Issue(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOTPService_VerifyConsumesOnce(t *testing.T) {
	svc, repo, _, id := newOTPFixture(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, id, code))
	stored, _ := repo.Stored(id)
	assert.Nil(t, stored.OTPCode)
	assert.Nil(t, stored.OTPExpires)

	assert.ErrorIs(t, svc.Verify(ctx, id, code), ErrOTPMismatch)
}

func TestOTPService_VerifyExpired(t *testing.T) {
	svc, repo, clock, id := newOTPFixture(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	assert.ErrorIs(t, svc.Verify(ctx, id, code), ErrOTPExpired)

	clock.Advance(time.Hour)
	assert.ErrorIs(t, svc.Verify(ctx, id, code), ErrOTPExpired)

	stored, _ := repo.Stored(id)
	assert.True(t, stored.HasPendingOTP())
}

func TestOTPService_VerifyJustBeforeExpiry(t *testing.T) {
	svc, _, clock, id := newOTPFixture(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	clock.Advance(10*time.Minute - time.Nanosecond)
	assert.NoError(t, svc.Verify(ctx, id, code))
}

func TestOTPService_MismatchLeavesPendingCode(t *testing.T) {
	svc, repo, _, id := newOTPFixture(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	assert.ErrorIs(t, svc.Verify(ctx, id, wrong), ErrOTPMismatch)
	assert.ErrorIs(t, svc.Verify(ctx, id, " "+code), ErrOTPMismatch)

	stored, _ := repo.Stored(id)
	require.True(t, stored.HasPendingOTP())
	assert.Equal(t, code, *stored.OTPCode)

	assert.NoError(t, svc.Verify(ctx, id, code))
}

func TestOTPService_VerifyWithoutPendingCode(t *testing.T) {
	svc, _, _, id := newOTPFixture(t)

	assert.ErrorIs(t, svc.Verify(context.Background(), id, "123456"), ErrOTPMismatch)
	assert.ErrorIs(t, svc.Verify(context.Background(), "missing", "123456"), ErrNotFound)
}

func TestOTPService_ReissueReplacesCode(t *testing.T) {
	svc, _, _, id := newOTPFixture(t)
	ctx := context.Background()

	codes := []string{"111111", "222222"}
	svc.generate = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	_, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)
	_, _, err = svc.Issue(ctx, id)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify(ctx, id, "111111"), ErrOTPMismatch)
	assert.NoError(t, svc.Verify(ctx, id, "222222"))
}

func TestOTPService_ConcurrentVerifySucceedsOnce(t *testing.T) {
	svc, _, _, id := newOTPFixture(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Verify(ctx, id, code) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
