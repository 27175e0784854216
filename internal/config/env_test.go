package config

import (
	"testing"
	"time"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("PHOALBUM_TEST_INT", "42")
	t.Setenv("PHOALBUM_TEST_BAD", "not-a-number")
	t.Setenv("PHOALBUM_TEST_DUR", "750ms")
	t.Setenv("PHOALBUM_TEST_BOOL", "true")
	t.Setenv("PHOALBUM_TEST_FLOAT", "0.25")

	if got := GetEnv("PHOALBUM_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetEnv fallback = %q, want x", got)
	}
	if got := GetEnvInt("PHOALBUM_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("PHOALBUM_TEST_BAD", 7); got != 7 {
		t.Errorf("GetEnvInt with bad value = %d, want fallback 7", got)
	}
	if got := GetEnvDuration("PHOALBUM_TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("GetEnvDuration = %v, want 750ms", got)
	}
	if got := GetEnvBool("PHOALBUM_TEST_BOOL", false); !got {
		t.Error("GetEnvBool = false, want true")
	}
	if got := GetEnvFloat("PHOALBUM_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("GetEnvFloat = %v, want 0.25", got)
	}
	if got := GetEnvFloat("PHOALBUM_TEST_BAD", 1.5); got != 1.5 {
		t.Errorf("GetEnvFloat with bad value = %v, want fallback 1.5", got)
	}
}
