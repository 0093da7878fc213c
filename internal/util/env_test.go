package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{" on ", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tc := range tests {
		t.Setenv("PAU_TEST_BOOL", tc.value)
		if got := ParseBoolEnv("PAU_TEST_BOOL", tc.defaultValue); got != tc.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.defaultValue, got, tc.want)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("PAU_TEST_STRING", "")
	if got := EnvOrDefault("PAU_TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("EnvOrDefault with empty var = %q, want fallback", got)
	}
	t.Setenv("PAU_TEST_STRING", "set")
	if got := EnvOrDefault("PAU_TEST_STRING", "fallback"); got != "set" {
		t.Errorf("EnvOrDefault with set var = %q, want set", got)
	}
}
