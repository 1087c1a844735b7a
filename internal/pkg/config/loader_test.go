package config_test

import (
	"fmt"
	"testing"
	"time"

	"feedpress/internal/pkg/config"
)

func TestLoadEnvStringDefault(t *testing.T) {
	if got := config.LoadEnvString("FEEDPRESS_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("LoadEnvString = %q, want %q", got, "fallback")
	}

	t.Setenv("FEEDPRESS_TEST_STR", "value")
	if got := config.LoadEnvString("FEEDPRESS_TEST_STR", "fallback"); got != "value" {
		t.Errorf("LoadEnvString = %q, want %q", got, "value")
	}
}

func TestLoadEnvWithFallback(t *testing.T) {
	rejectAll := func(string) error { return fmt.Errorf("rejected") }

	t.Run("unset uses default without warning", func(t *testing.T) {
		result := config.LoadEnvWithFallback("FEEDPRESS_TEST_UNSET", "default", rejectAll)
		if result.FallbackApplied {
			t.Error("FallbackApplied = true for unset variable")
		}
		if result.Value.(string) != "default" {
			t.Errorf("Value = %v, want default", result.Value)
		}
	})

	t.Run("invalid value falls back with warning", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_BAD", "whatever")
		result := config.LoadEnvWithFallback("FEEDPRESS_TEST_BAD", "default", rejectAll)
		if !result.FallbackApplied {
			t.Error("FallbackApplied = false for invalid value")
		}
		if len(result.Warnings) != 1 {
			t.Errorf("Warnings = %v, want exactly one", result.Warnings)
		}
		if result.Value.(string) != "default" {
			t.Errorf("Value = %v, want default", result.Value)
		}
	})

	t.Run("valid value passes through", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_OK", "0 30 5 * * *")
		result := config.LoadEnvWithFallback("FEEDPRESS_TEST_OK", "default", config.ValidateCronSpec)
		if result.FallbackApplied {
			t.Errorf("FallbackApplied = true, warnings: %v", result.Warnings)
		}
		if result.Value.(string) != "0 30 5 * * *" {
			t.Errorf("Value = %v", result.Value)
		}
	})
}

func TestLoadEnvDuration(t *testing.T) {
	t.Run("parses valid duration", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_DUR", "45s")
		result := config.LoadEnvDuration("FEEDPRESS_TEST_DUR", time.Minute, config.ValidatePositiveDuration)
		if result.Value.(time.Duration) != 45*time.Second {
			t.Errorf("Value = %v, want 45s", result.Value)
		}
	})

	t.Run("unparsable falls back", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_DUR", "forty seconds")
		result := config.LoadEnvDuration("FEEDPRESS_TEST_DUR", time.Minute, nil)
		if !result.FallbackApplied || result.Value.(time.Duration) != time.Minute {
			t.Errorf("result = %+v, want fallback to 1m", result)
		}
	})

	t.Run("validator rejection falls back", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_DUR", "-5s")
		result := config.LoadEnvDuration("FEEDPRESS_TEST_DUR", time.Minute, config.ValidatePositiveDuration)
		if !result.FallbackApplied || result.Value.(time.Duration) != time.Minute {
			t.Errorf("result = %+v, want fallback to 1m", result)
		}
	})
}

func TestLoadEnvInt(t *testing.T) {
	t.Run("parses valid int", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_INT", "7")
		result := config.LoadEnvInt("FEEDPRESS_TEST_INT", 3, func(v int) error {
			return config.ValidateIntRange(v, 1, 10)
		})
		if result.Value.(int) != 7 {
			t.Errorf("Value = %v, want 7", result.Value)
		}
	})

	t.Run("out of range falls back", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_INT", "100")
		result := config.LoadEnvInt("FEEDPRESS_TEST_INT", 3, func(v int) error {
			return config.ValidateIntRange(v, 1, 10)
		})
		if !result.FallbackApplied || result.Value.(int) != 3 {
			t.Errorf("result = %+v, want fallback to 3", result)
		}
	})

	t.Run("unparsable falls back", func(t *testing.T) {
		t.Setenv("FEEDPRESS_TEST_INT", "seven")
		result := config.LoadEnvInt("FEEDPRESS_TEST_INT", 3, nil)
		if !result.FallbackApplied || result.Value.(int) != 3 {
			t.Errorf("result = %+v, want fallback to 3", result)
		}
	})
}

func TestLoadEnvBool(t *testing.T) {
	if got := config.LoadEnvBool("FEEDPRESS_TEST_UNSET", true); !got {
		t.Error("unset should yield default true")
	}
	t.Setenv("FEEDPRESS_TEST_BOOL", "false")
	if got := config.LoadEnvBool("FEEDPRESS_TEST_BOOL", true); got {
		t.Error("explicit false ignored")
	}
	t.Setenv("FEEDPRESS_TEST_BOOL", "not-a-bool")
	if got := config.LoadEnvBool("FEEDPRESS_TEST_BOOL", true); !got {
		t.Error("unparsable should yield default")
	}
}
