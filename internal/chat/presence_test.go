package chat

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestActivityPresence(t *testing.T) {
	gdb := openDB(t)
	useClock(t, epoch)

	p := NewActivityPresence(gdb, 5*time.Minute, []string{"Sarah", "Michael"})
	p.pick = func(n int) int { return n - 1 }
	ctx := context.Background()

	sid := mustSendCustomer(t, gdb, CustomerSendOpts{Message: "anyone?"}).SessionID

	st, err := p.StaffStatus(ctx, sid)
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if st.Online || st.Name != "" {
		t.Errorf("no staff reply: status = %+v, want offline", st)
	}

	mustSendStaff(t, gdb, sid, "here")
	st, err = p.StaffStatus(ctx, sid)
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if !st.Online || st.Name != "Michael" {
		t.Errorf("recent reply: status = %+v", st)
	}

	// Another session is unaffected.
	other := mustSendCustomer(t, gdb, CustomerSendOpts{Message: "hello"}).SessionID
	if st, _ := p.StaffStatus(ctx, other); st.Online {
		t.Error("presence leaked across sessions")
	}

	useClock(t, epoch.Add(10*time.Minute))
	st, err = p.StaffStatus(ctx, sid)
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if st.Online {
		t.Error("reply older than the window should read as offline")
	}
}

func TestActivityPresence_EmptyRoster(t *testing.T) {
	gdb := openDB(t)
	useClock(t, epoch)
	p := NewActivityPresence(gdb, time.Minute, nil)

	sid := mustSendCustomer(t, gdb, CustomerSendOpts{Message: "q"}).SessionID
	mustSendStaff(t, gdb, sid, "a")
	st, err := p.StaffStatus(context.Background(), sid)
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if !st.Online || st.Name != "" {
		t.Errorf("status = %+v", st)
	}
}

// fakeHeartbeats is an in-memory heartbeatStore.
type fakeHeartbeats struct {
	hash       map[string]string
	deleted    []string
	readErr    error
	cleanupErr error // returned by HDel and Expire
}

func (f *fakeHeartbeats) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	for i := 0; i+1 < len(values); i += 2 {
		name := values[i].(string)
		switch v := values[i+1].(type) {
		case int64:
			f.hash[name] = strconv.FormatInt(v, 10)
		case string:
			f.hash[name] = v
		}
	}
	cmd.SetVal(1)
	return cmd
}

func (f *fakeHeartbeats) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx)
	if f.readErr != nil {
		cmd.SetErr(f.readErr)
		return cmd
	}
	out := make(map[string]string, len(f.hash))
	for k, v := range f.hash {
		out[k] = v
	}
	cmd.SetVal(out)
	return cmd
}

func (f *fakeHeartbeats) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.cleanupErr != nil {
		cmd.SetErr(f.cleanupErr)
		return cmd
	}
	for _, name := range fields {
		delete(f.hash, name)
		f.deleted = append(f.deleted, name)
	}
	cmd.SetVal(int64(len(fields)))
	return cmd
}

func (f *fakeHeartbeats) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if f.cleanupErr != nil {
		cmd.SetErr(f.cleanupErr)
		return cmd
	}
	cmd.SetVal(true)
	return cmd
}

func TestRedisPresence(t *testing.T) {
	store := &fakeHeartbeats{hash: map[string]string{}}
	p := NewRedisPresence(store, 5*time.Minute)
	ctx := context.Background()

	st, err := p.StaffStatus(ctx, "session_a")
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if st.Online {
		t.Error("empty hash should be offline")
	}

	useClock(t, epoch)
	if err := p.Touch(ctx, "Emma"); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := p.Touch(ctx, "David"); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	store.hash["Olivia"] = strconv.FormatInt(epoch.Add(-time.Hour).Unix(), 10)
	store.hash["Broken"] = "not-a-number"

	st, err = p.StaffStatus(ctx, "session_a")
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if !st.Online || st.Name != "David" {
		t.Errorf("status = %+v, want David online", st)
	}
	if len(store.deleted) != 2 {
		t.Errorf("stale entries removed = %v, want Olivia and Broken", store.deleted)
	}
}

func TestRedisPresence_Errors(t *testing.T) {
	store := &fakeHeartbeats{hash: map[string]string{}, readErr: errors.New("connection refused")}
	p := NewRedisPresence(store, time.Minute)

	if _, err := p.StaffStatus(context.Background(), "s"); err == nil {
		t.Error("expected read error")
	}
	if err := p.Touch(context.Background(), ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestRedisPresence_CleanupErrorsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	useClock(t, epoch)
	store := &fakeHeartbeats{hash: map[string]string{}, cleanupErr: errors.New("READONLY")}
	p := NewRedisPresence(store, 5*time.Minute)
	ctx := context.Background()

	if err := p.Touch(ctx, "Emma"); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	store.hash["Olivia"] = strconv.FormatInt(epoch.Add(-time.Hour).Unix(), 10)

	st, err := p.StaffStatus(ctx, "s")
	if err != nil {
		t.Fatalf("StaffStatus: %v", err)
	}
	if !st.Online || st.Name != "Emma" {
		t.Errorf("status = %+v, want Emma online", st)
	}
	if _, ok := store.hash["Olivia"]; !ok {
		t.Error("stale entry removed despite HDel failure")
	}
	out := logs.String()
	for _, want := range []string{"presence expire failed", "presence cleanup failed", "READONLY"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
