package cache

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	hostPort := strings.Split(mr.Addr(), ":")
	port, err := strconv.Atoi(hostPort[1])
	if err != nil {
		t.Fatalf("failed to parse miniredis port: %v", err)
	}

	svc, err := NewCacheService(Config{Host: hostPort[0], Port: port}, testLogger())
	if err != nil {
		t.Fatalf("NewCacheService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mr
}

func TestSetAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	type geocoded struct {
		Address  string  `json:"address"`
		Latitude float64 `json:"latitude"`
	}

	want := geocoded{Address: "서울특별시 중구", Latitude: 37.5665}
	if err := svc.Set(ctx, "geo:fwd:서울시청", want, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got geocoded
	found, err := svc.Get(ctx, "geo:fwd:서울시청", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetMissingKey(t *testing.T) {
	svc, _ := newTestService(t)

	var out string
	found, err := svc.Get(context.Background(), "missing", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("found = true for missing key")
	}
}

func TestSetNXCooldown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SetNX(ctx, "menu:cooldown:abc", "1", time.Hour)
	if err != nil {
		t.Fatalf("SetNX() error = %v", err)
	}
	if !first {
		t.Fatal("first SetNX should acquire")
	}

	second, err := svc.SetNX(ctx, "menu:cooldown:abc", "1", time.Hour)
	if err != nil {
		t.Fatalf("SetNX() error = %v", err)
	}
	if second {
		t.Error("second SetNX should not acquire while key exists")
	}
}

func TestTTLExpiry(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "short", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var out string
	found, err := svc.Get(ctx, "short", &out)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("key survived TTL expiry")
	}
}

func TestDelAndExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, err := svc.Exists(ctx, "k")
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v", exists, err)
	}

	if err := svc.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() error = %v", err)
	}

	exists, err = svc.Exists(ctx, "k")
	if err != nil || exists {
		t.Fatalf("Exists() after Del = %v, %v", exists, err)
	}
}
