package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("BAZAAR_TEST_VALUE", "  ")
	if got := Get("BAZAAR_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("BAZAAR_TEST_VALUE", " text ")
	if got := Get("BAZAAR_TEST_VALUE", "json"); got != "text" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("BAZAAR_TEST_FLAG", "true")
	if !Bool("BAZAAR_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("BAZAAR_TEST_FLAG", "maybe")
	if Bool("BAZAAR_TEST_FLAG", false) {
		t.Fatalf("expected fallback on garbage")
	}
}
