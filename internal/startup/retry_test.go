package startup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snapshelf/snapshelf/internal/testutil"
)

var fastRetry = RetryConfig{
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	MaxAttempts:  3,
	Multiplier:   2,
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.themoviedb.org"}, true},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"wrapped refused", fmt.Errorf("tmdb: %w", errors.New("dial tcp 1.2.3.4:443: connection refused")), true},
		{"deadline", fmt.Errorf("omdb: %w", context.DeadlineExceeded), true},
		{"auth", errors.New("invalid API key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkError(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	logger := testutil.NewTestLogger(t)

	t.Run("succeeds after network errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(t.Context(), "probe", fastRetry, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, logger)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(t.Context(), "probe", fastRetry, func(ctx context.Context) error {
			calls++
			return errors.New("i/o timeout")
		}, logger)
		assert.EqualError(t, err, "i/o timeout")
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(t.Context(), "probe", fastRetry, func(ctx context.Context) error {
			calls++
			return errors.New("invalid API key")
		}, logger)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cfg := fastRetry
		cfg.InitialDelay = time.Hour
		calls := 0
		err := WithRetry(ctx, "probe", cfg, func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("connection refused")
		}, logger)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

type fakeTester struct {
	errs  []error
	calls int
}

func (f *fakeTester) TestProviders(ctx context.Context) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func TestProbeProviders(t *testing.T) {
	tester := &fakeTester{errs: []error{errors.New("no such host"), nil}}
	ProbeProviders(t.Context(), tester, fastRetry, testutil.NewTestLogger(t))
	assert.Equal(t, 2, tester.calls)

	tester = &fakeTester{errs: []error{errors.New("invalid API key")}}
	ProbeProviders(t.Context(), tester, fastRetry, testutil.NopLogger())
	assert.Equal(t, 1, tester.calls)
}
