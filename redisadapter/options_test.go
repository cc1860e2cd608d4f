package redisadapter

import "testing"

func TestParseAddr(t *testing.T) {
	o := resolveOptions(ParseAddr("redis.internal:6380"))
	if o.Host != "redis.internal" || o.Port != 6380 {
		t.Fatalf("ParseAddr = %+v", o)
	}
}

func TestParseAddrInvalidIsIgnored(t *testing.T) {
	o := resolveOptions(ParseAddr("not-a-valid-addr"))
	if o.Host != defaultHost || o.Port != defaultPort {
		t.Fatalf("ParseAddr(invalid) should leave defaults untouched, got %+v", o)
	}
}

func TestDefaultOptions(t *testing.T) {
	o := resolveOptions()
	if o.Host != defaultHost || o.Port != defaultPort || o.Key != defaultPrefix || o.Timeout != defaultBaseTimeout {
		t.Fatalf("resolveOptions() with no options = %+v", o)
	}
}

func TestOptionsLastWriterWins(t *testing.T) {
	o := resolveOptions(WithPrefix("a"), WithPrefix("b"))
	if o.Key != "b" {
		t.Fatalf("Key = %q, want %q", o.Key, "b")
	}
}
