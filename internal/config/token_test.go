package config

import "testing"

func TestEnsureAPITokenGeneratesOnce(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	kc := NewKeychain()

	first, err := EnsureAPIToken(kc)
	if err != nil {
		t.Fatalf("EnsureAPIToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	second, err := EnsureAPIToken(kc)
	if err != nil {
		t.Fatalf("second EnsureAPIToken: %v", err)
	}
	if second != first {
		t.Error("EnsureAPIToken regenerated an existing token")
	}

	got, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if got != first {
		t.Errorf("GetAPIToken = %q, want %q", got, first)
	}
}

func TestGetAPITokenMissing(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := GetAPIToken(NewKeychain()); err == nil {
		t.Error("GetAPIToken succeeded with no stored token")
	}
}
