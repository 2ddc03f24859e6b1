package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	Reset()
	if Ping() != DefaultPing || Short() != DefaultShort || Medium() != DefaultMedium {
		t.Errorf("defaults not applied: %v %v %v", Ping(), Short(), Medium())
	}
}

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 9 * time.Second})
	if Short() != 9*time.Second {
		t.Errorf("Short: got %v, want 9s", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed by zero value: got %v", Medium())
	}
}

func TestWithTimeout_Expires(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	defer cancel()

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", ctx.Err())
	}
}
