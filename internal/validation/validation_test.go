package validation

import (
	stderrors "errors"
	"testing"
	"time"

	"saasadmin/internal/models"

	"github.com/go-playground/validator/v10"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v, func() time.Time { return now })
	return v
}

func floatPtr(v float64) *float64 { return &v }

// failedTag 返回首个失败的校验标签，通过时返回空串
func failedTag(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	return verrs[0].Tag()
}

func TestTenantAdminQuota(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name        string
		tenantQuota *float64
		adminQuota  *float64
		want        string
	}{
		{"admin within tenant", floatPtr(100), floatPtr(100), ""},
		{"admin above tenant", floatPtr(100), floatPtr(100.5), TagAdminQuota},
		{"tenant quota absent", nil, floatPtr(100), ""},
		{"admin quota absent", floatPtr(1), nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.CreateTenantRequest{
				Name:        "acme",
				ContactName: "x",
				QuotaLimit:  tt.tenantQuota,
				AdminUser:   &models.AdminUserRequest{Username: "admin", QuotaLimit: tt.adminQuota},
			}
			if got := failedTag(t, v.Struct(req)); got != tt.want {
				t.Fatalf("tag = %q, want %q", got, tt.want)
			}
		})
	}

	update := models.UpdateTenantRequest{
		QuotaLimit: floatPtr(5),
		AdminUser:  &models.AdminUserRequest{Username: "admin", QuotaLimit: floatPtr(6)},
	}
	if got := failedTag(t, v.Struct(update)); got != TagAdminQuota {
		t.Fatalf("update tag = %q", got)
	}
}

func TestAgentParentSelf(t *testing.T) {
	v := newValidator()
	self := uint(3)

	req := models.UpdateAgentRequest{ParentID: &self}
	if got := failedTag(t, v.Struct(req)); got != "" {
		t.Fatalf("without id the rule must not fire, got %q", got)
	}

	req.ID = 3
	if got := failedTag(t, v.Struct(req)); got != TagParentSelf {
		t.Fatalf("tag = %q, want %q", got, TagParentSelf)
	}

	other := uint(4)
	req.ParentID = &other
	if got := failedTag(t, v.Struct(req)); got != "" {
		t.Fatalf("tag = %q, want none", got)
	}
}

func TestExpireAtMustBeFuture(t *testing.T) {
	v := newValidator()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	req := models.CreateAgentRequest{Name: "a", ContactName: "x", ExpireAt: &past}
	if got := failedTag(t, v.Struct(req)); got != TagExpireFuture {
		t.Fatalf("tag = %q, want %q", got, TagExpireFuture)
	}
	req.ExpireAt = &future
	if got := failedTag(t, v.Struct(req)); got != "" {
		t.Fatalf("tag = %q, want none", got)
	}
}

func TestCommissionRateBounds(t *testing.T) {
	v := newValidator()
	req := models.CreateAgentRequest{Name: "a", ContactName: "x", CommissionRate: floatPtr(1.2)}
	if got := failedTag(t, v.Struct(req)); got != "max" {
		t.Fatalf("tag = %q, want max", got)
	}
}
