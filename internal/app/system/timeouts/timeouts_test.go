package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Read: 42 * time.Second})
	if Read() != 42*time.Second {
		t.Errorf("Read = %v, want 42s", Read())
	}
	if Write() != DefaultWrite {
		t.Errorf("Write = %v, want default", Write())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("TCCSITE_TIMEOUT_FETCH", "3s")
	t.Setenv("TCCSITE_TIMEOUT_BATCH", "bogus")
	t.Setenv("TCCSITE_TIMEOUT_PING", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("configured = %d, want 1", n)
	}
	cur := Current()
	if cur.Fetch != 3*time.Second || cur.Batch != DefaultBatch || cur.Ping != DefaultPing {
		t.Errorf("current = %+v", cur)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "test")
	defer cancel()
	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v", ctx.Err())
	}
}
