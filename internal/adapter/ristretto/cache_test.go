package ristretto

import (
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "card:echo-agent", []byte(`{"name":"echo-agent"}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	val, found, err := c.Get(ctx, "card:echo-agent")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected found after Set")
	}
	if string(val) != `{"name":"echo-agent"}` {
		t.Fatalf("unexpected value: %s", val)
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	_, found, err := c.Get(context.Background(), "card:nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss for nonexistent key")
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "card:del", []byte("v"), time.Minute)
	c.Wait()
	if err := c.Delete(ctx, "card:del"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	_, found, err := c.Get(ctx, "card:del")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss after Delete")
	}
}

func TestDeleteNonexistent(t *testing.T) {
	c := newTestCache(t)
	if err := c.Delete(context.Background(), "never-existed"); err != nil {
		t.Fatal("Delete of nonexistent key should not error")
	}
}

func TestOverwrite(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "card:ow", []byte("v1"), time.Minute)
	c.Wait()
	_ = c.Set(ctx, "card:ow", []byte("v2"), time.Minute)
	c.Wait()

	val, found, err := c.Get(ctx, "card:ow")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected found after overwrite")
	}
	if string(val) != "v2" {
		t.Fatalf("expected v2 after overwrite, got %s", val)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "card:ttl", []byte("v"), 20*time.Millisecond)
	c.Wait()

	time.Sleep(60 * time.Millisecond)

	_, found, err := c.Get(ctx, "card:ttl")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss after TTL expiry")
	}
}
