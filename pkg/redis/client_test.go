package redis

import "testing"

func TestKeyHelpersAreNamespaced(t *testing.T) {
	c := &Client{}

	if got := c.CartSnapshotKey("user-1"); got != "kp:cart_snapshot:user-1" {
		t.Fatalf("unexpected snapshot key %q", got)
	}
	if got := c.RateLimitKey("cart:user-1"); got != "kp:rate_limit:cart:user-1" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
}

func TestBuildKeySkipsEmptyParts(t *testing.T) {
	c := &Client{}

	if got := c.buildKey("", "cart_snapshot", ""); got != "kp:cart_snapshot" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := c.buildKey(); got != "kp" {
		t.Fatalf("unexpected bare namespace %q", got)
	}
}
