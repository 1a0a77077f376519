package breaker

import "testing"

func TestCheck_SafeNoDrop(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(100, 100)
	if r.Decision != Safe {
		t.Errorf("Decision = %q, want safe", r.Decision)
	}
}

func TestCheck_SafeSmallDrop(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(85, 100) // 15% drop
	if r.Decision != Safe {
		t.Errorf("Decision = %q, want safe", r.Decision)
	}
}

func TestCheck_TriggeredLargeDrop(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(70, 100) // 30% drop
	if r.Decision != Triggered {
		t.Errorf("Decision = %q, want triggered", r.Decision)
	}
	if r.Safe() {
		t.Error("Result.Safe() = true, want false")
	}
}

func TestCheck_ColdStartNoPrevious(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(50, 0)
	if r.Decision != ColdStart {
		t.Errorf("Decision = %q, want cold_start", r.Decision)
	}
}

func TestCheck_EmptyResult(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(0, 100)
	if r.Decision != EmptyResult {
		t.Errorf("Decision = %q, want empty_result", r.Decision)
	}
	if r.Safe() {
		t.Error("Result.Safe() = true, want false")
	}
}

func TestCheck_IncreaseIsSafe(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(150, 100)
	if r.Decision != Safe {
		t.Errorf("Decision = %q, want safe", r.Decision)
	}
}

func TestCheck_BelowBaselineIsColdStart(t *testing.T) {
	b := New(DefaultConfig())
	r := b.Check(5, 8) // previous below min_baseline (10)
	if r.Decision != ColdStart {
		t.Errorf("Decision = %q, want cold_start", r.Decision)
	}
}

func TestCheck_ColdStartDisallowedIsEmptyResult(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowColdStart = false
	b := New(cfg)
	r := b.Check(0, 0)
	if r.Decision != EmptyResult {
		t.Errorf("Decision = %q, want empty_result", r.Decision)
	}
}
