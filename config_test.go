package assure

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigRejectsAuthzTTLInsideIdleTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.PendingAuthz.TTL = cfg.Session.IdleTimeout
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validation to reject TTL <= idle timeout")
	}

	cfg.PendingAuthz.TTL = cfg.Session.IdleTimeout - time.Minute
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validation to reject TTL < idle timeout")
	}
}

func TestConfigRequiresAAL1Window(t *testing.T) {
	cfg := testConfig()
	cfg.DeviceTrust.RememberDeviceTTL = map[AssuranceLevel]time.Duration{
		AAL2: time.Hour,
	}
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validation to require an AAL1 window")
	}

	cfg.DeviceTrust.RememberDeviceTTL = nil
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validation to require a TTL table")
	}
}

func TestConfigRequiresDistinctPrefixes(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RedisPrefix = cfg.DeviceTrust.RedisPrefix
	if err := cfg.validate(); err == nil {
		t.Fatal("expected validation to reject shared prefixes")
	}
}

func TestConfigPerLevelWindows(t *testing.T) {
	cfg := testConfig()
	cfg.DeviceTrust.RememberDeviceTTL = map[AssuranceLevel]time.Duration{
		AAL1: 12 * time.Hour,
		AAL2: time.Hour,
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if got := cfg.rememberTTL(AAL1); got != 12*time.Hour {
		t.Fatalf("expected 12h for AAL1, got %v", got)
	}
	if got := cfg.rememberTTL(AAL2); got != time.Hour {
		t.Fatalf("expected 1h for AAL2, got %v", got)
	}
	if got := cfg.rememberTTL(AAL3); got != 0 {
		t.Fatalf("expected no window for AAL3, got %v", got)
	}
	if got := cfg.maxRememberTTL(); got != 12*time.Hour {
		t.Fatalf("expected 12h max, got %v", got)
	}
}

func TestCloneConfigCopiesTTLTable(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)
	clone.DeviceTrust.RememberDeviceTTL[AAL1] = time.Minute

	if cfg.DeviceTrust.RememberDeviceTTL[AAL1] != 12*time.Hour {
		t.Fatal("cloneConfig must not share the TTL table")
	}
}
