package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis emulates the fixed-window script with an in-memory counter.
type fakeRedis struct {
	counts map[string]int
	keys   []string
	args   [][]interface{}
	err    error
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	f.keys = append(f.keys, keys...)
	f.args = append(f.args, args)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[keys[0]]++
	limit := args[0].(int)
	if f.counts[keys[0]] > limit {
		cmd.SetVal(int64(0))
	} else {
		cmd.SetVal(int64(1))
	}
	return cmd
}

func TestAllow_FixedWindow(t *testing.T) {
	rdb := &fakeRedis{counts: map[string]int{}}
	l := New(rdb, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	ok, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("fourth request should be rejected")
	}

	// Other keys have their own window.
	if ok, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Error("different key should be allowed")
	}

	if rdb.keys[0] != "storefront:ratelimit:1.2.3.4" {
		t.Errorf("key = %q", rdb.keys[0])
	}
	if rdb.args[0][1] != 60 {
		t.Errorf("window arg = %v, want 60", rdb.args[0][1])
	}
}

func TestNew_MinimumWindow(t *testing.T) {
	l := New(&fakeRedis{counts: map[string]int{}}, 1, 10*time.Millisecond)
	if l.window != time.Second {
		t.Errorf("window = %v, want 1s", l.window)
	}
}

func TestAllow_Error(t *testing.T) {
	l := New(&fakeRedis{err: errors.New("connection refused")}, 1, time.Second)
	ok, err := l.Allow(context.Background(), "k")
	if err == nil {
		t.Fatal("expected error")
	}
	if ok {
		t.Error("error result should not report allowed")
	}
}
