package quota

import (
	"errors"
	"testing"
	"time"

	bizerrors "saasadmin/pkg/errors"
)

func TestAddUsageGuard(t *testing.T) {
	l := Ledger{QuotaLimit: 100, QuotaUsed: 90}

	if err := l.AddUsage(20); !errors.Is(err, bizerrors.ErrQuotaExceeded) {
		t.Fatalf("AddUsage(20) error = %v, want ErrQuotaExceeded", err)
	}
	if l.QuotaUsed != 90 {
		t.Fatalf("used after rejected AddUsage = %v, want 90", l.QuotaUsed)
	}

	if err := l.AddUsage(10); err != nil {
		t.Fatalf("AddUsage(10) error = %v", err)
	}
	if l.QuotaUsed != 100 {
		t.Fatalf("used = %v, want 100", l.QuotaUsed)
	}
	if !l.IsQuotaExceeded() {
		t.Fatal("ledger at limit should report exceeded")
	}
}

func TestRemainingQuota(t *testing.T) {
	tests := []struct {
		name        string
		limit, used float64
		want        float64
	}{
		{"under limit", 100, 40, 60},
		{"at limit", 100, 100, 0},
		{"over limit after reset", 50, 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Ledger{QuotaLimit: tt.limit, QuotaUsed: tt.used}
			if got := l.RemainingQuota(); got != tt.want {
				t.Fatalf("RemainingQuota() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetQuota(t *testing.T) {
	l := Ledger{QuotaLimit: 100, QuotaUsed: 70}
	l.ResetQuota(nil)
	if l.QuotaUsed != 0 || l.QuotaLimit != 100 {
		t.Fatalf("ResetQuota(nil) = %+v", l)
	}

	l.QuotaUsed = 30
	newLimit := 10.0
	l.ResetQuota(&newLimit)
	if l.QuotaUsed != 0 || l.QuotaLimit != 10 {
		t.Fatalf("ResetQuota(10) = %+v", l)
	}
}

func TestAdjustQuota(t *testing.T) {
	l := Ledger{QuotaLimit: 100, QuotaUsed: 80}

	if err := l.AdjustQuota(-50); err != nil {
		t.Fatalf("AdjustQuota(-50) error = %v", err)
	}
	// 管理操作允许 used > limit
	if l.QuotaLimit != 50 || l.QuotaUsed != 80 {
		t.Fatalf("after adjust = %+v", l)
	}

	if err := l.AdjustQuota(-51); !errors.Is(err, bizerrors.ErrInvalidQuota) {
		t.Fatalf("AdjustQuota(-51) error = %v, want ErrInvalidQuota", err)
	}
	if l.QuotaLimit != 50 {
		t.Fatalf("limit changed on rejected adjust: %v", l.QuotaLimit)
	}
}

func TestIsAvailable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	healthy := Ledger{QuotaLimit: 100, QuotaUsed: 10}

	tests := []struct {
		name     string
		normal   bool
		expireAt *time.Time
		ledger   Ledger
		want     bool
	}{
		{"available without expiry", true, nil, healthy, true},
		{"available with future expiry", true, &future, healthy, true},
		{"status not normal", false, nil, healthy, false},
		{"expired", true, &past, healthy, false},
		{"quota exceeded", true, &future, Ledger{QuotaLimit: 100, QuotaUsed: 100}, false},
		{"zero limit", true, nil, Ledger{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(tt.normal, tt.expireAt, tt.ledger, now); got != tt.want {
				t.Fatalf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUsageRate(t *testing.T) {
	if got := (Ledger{QuotaLimit: 0, QuotaUsed: 5}).UsageRate(); got != 0 {
		t.Fatalf("UsageRate with zero limit = %v", got)
	}
	if got := (Ledger{QuotaLimit: 200, QuotaUsed: 50}).UsageRate(); got != 0.25 {
		t.Fatalf("UsageRate = %v, want 0.25", got)
	}
}
