package otp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSweep(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Key{1, enums.RoleUser, enums.OTPPurposeConfirmSignin}, "123456", time.Minute))
	require.NoError(t, store.Put(ctx, Key{2, enums.RoleUser, enums.OTPPurposeConfirmSignin}, "654321", time.Hour))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreSweepEveryStopsWithContext(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(clock.Now)
	require.NoError(t, store.Put(context.Background(), Key{1, enums.RoleUser, enums.OTPPurposeConfirmSignin}, "123456", time.Minute))
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.SweepEvery(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	f.ttl[key] = ttl
	return nil
}

func (f *fakeKV) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != expected {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func (f *fakeKV) OTPKey(role, purpose string, principalID uint) string {
	return fmt.Sprintf("bz:otp:%s:%s:%d", role, purpose, principalID)
}

func TestRedisStoreUsesNamespacedSlot(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
	store := NewRedisStore(kv)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Key{8, enums.RoleSaller, enums.OTPPurposeConfirmSignin}, "111111", time.Hour))
	require.NoError(t, store.Put(ctx, Key{8, enums.RoleSaller, enums.OTPPurposeConfirmSignin}, "222222", time.Hour))
	assert.Equal(t, "222222", kv.data["bz:otp:saller:confirm_signin:8"])
	assert.Equal(t, time.Hour, kv.ttl["bz:otp:saller:confirm_signin:8"])

	require.NoError(t, store.Put(ctx, Key{8, enums.RoleSaller, enums.OTPPurposePasswordReset}, "333333", time.Minute))
	assert.Equal(t, "222222", kv.data["bz:otp:saller:confirm_signin:8"])
	assert.Equal(t, "333333", kv.data["bz:otp:saller:password_reset:8"])

	ok, err := store.Consume(ctx, Key{8, enums.RoleSaller, enums.OTPPurposeConfirmSignin}, "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, Key{8, enums.RoleSaller, enums.OTPPurposeConfirmSignin}, "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServiceStoresDigestNotCode(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	kv := &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
	svc := newTestService(t, NewRedisStore(kv), clock)

	issued, err := svc.Issue(ctx, 4, enums.RoleUser, enums.OTPPurposeConfirmSignin)
	require.NoError(t, err)

	stored, ok := kv.data["bz:otp:user:confirm_signin:4"]
	require.True(t, ok)
	assert.NotEqual(t, issued.Code, stored)
	assert.NotContains(t, stored, issued.Code)
	assert.Len(t, stored, 64)

	require.NoError(t, svc.Validate(ctx, 4, enums.RoleUser, enums.OTPPurposeConfirmSignin, issued.Code))
	_, ok = kv.data["bz:otp:user:confirm_signin:4"]
	assert.False(t, ok)
}
