package config

import (
	"testing"
)

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	p := writeCfg(t, "test.env", "BANKPULL_TEST_A=from-file\nBANKPULL_TEST_B=file-b\n")
	t.Setenv("BANKPULL_TEST_A", "from-env")
	t.Setenv("BANKPULL_TEST_B", "")
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := Getenv("BANKPULL_TEST_A", "x"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := Getenv("BANKPULL_TEST_B", "x"); got != "" {
		t.Fatalf("expected set-but-empty value kept, got %q", got)
	}
}

func TestLoadDotEnv_MissingExplicitFile(t *testing.T) {
	if err := LoadDotEnv(writeCfg(t, "x", "") + ".missing"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestGetenv_Fallback(t *testing.T) {
	if got := Getenv("BANKPULL_TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Fatalf("unexpected value: %q", got)
	}
}
