package models

import (
	"testing"
	"time"

	"saasadmin/internal/quota"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAccountPassword(t *testing.T) {
	var a Account
	if err := a.SetPassword("s3cret!"); err != nil {
		t.Fatal(err)
	}
	if a.Password == "s3cret!" {
		t.Fatal("password stored in plain text")
	}
	if !a.VerifyPassword("s3cret!") || a.VerifyPassword("wrong") {
		t.Fatal("verify mismatch")
	}

	if a.IsAdmin() {
		t.Fatal("zero user type is not admin")
	}
	a.UserType = UserTypeAdmin
	if !a.IsAdmin() {
		t.Fatal("admin user type")
	}
}

func TestTenantChildAvailability(t *testing.T) {
	tenant := &Tenant{Status: StatusNormal, Ledger: quota.Ledger{QuotaLimit: 10}}
	user := &TenantUser{Account: Account{Status: StatusNormal}, Ledger: quota.Ledger{QuotaLimit: 5}}
	app := &TenantAppConfig{Status: StatusNormal, Ledger: quota.Ledger{QuotaLimit: 5}}

	if !user.IsAvailable(tenant, now) || !app.IsAvailable(tenant, now) {
		t.Fatal("user and app should be available under an available tenant")
	}
	if user.IsAvailable(nil, now) || app.IsAvailable(nil, now) {
		t.Fatal("missing tenant must make children unavailable")
	}

	past := now.Add(-time.Hour)
	tenant.ExpireAt = &past
	if user.IsAvailable(tenant, now) || app.IsAvailable(tenant, now) {
		t.Fatal("expired tenant must make children unavailable")
	}

	tenant.ExpireAt = nil
	user.QuotaUsed = 5
	if user.IsAvailable(tenant, now) {
		t.Fatal("user at its limit is unavailable")
	}
}

func TestAppConfigValues(t *testing.T) {
	var cfg TenantAppConfig
	cfg.SetConfigValue("limits.rpm", 60)
	cfg.MergeConfig(map[string]interface{}{
		"api_key":      "sk-1",
		"api_endpoint": "https://api.example.com",
		"models":       []interface{}{"gpt-a", "gpt-b"},
	})

	if v, ok := cfg.ConfigValue("limits.rpm"); !ok || v != 60 {
		t.Fatalf("limits.rpm = %v %v", v, ok)
	}
	if cfg.APIKey() != "sk-1" || cfg.APIEndpoint() != "https://api.example.com" {
		t.Fatalf("key = %q endpoint = %q", cfg.APIKey(), cfg.APIEndpoint())
	}
	if !cfg.SupportsModel("gpt-b") || cfg.SupportsModel("gpt-c") {
		t.Fatal("model list lookup")
	}

	cfg.MergeConfig(map[string]interface{}{"models": map[string]interface{}{"gpt-c": true}})
	if !cfg.SupportsModel("gpt-c") || cfg.SupportsModel("gpt-a") {
		t.Fatal("model map lookup")
	}
	if _, ok := cfg.ConfigValue("limits.rpm"); !ok {
		t.Fatal("merge must keep unrelated keys")
	}

	cfg.SetConfigValue("limits.tpm", 1000)
	cfg.MergeConfig(map[string]interface{}{"limits.rpm": 120})
	if v, _ := cfg.ConfigValue("limits.rpm"); v != 120 {
		t.Fatalf("limits.rpm = %v, want 120", v)
	}
	if v, _ := cfg.ConfigValue("limits.tpm"); v != 1000 {
		t.Fatalf("dotted merge dropped sibling limits.tpm: %v", v)
	}
	if _, ok := cfg.Config["limits.rpm"]; ok {
		t.Fatal("dotted key stored literally")
	}
}

func TestUsageLogHelpers(t *testing.T) {
	tests := []struct {
		name    string
		log     QuotaUsageLog
		success bool
		errMsg  string
	}{
		{
			name:    "string status",
			log:     QuotaUsageLog{ResponseData: map[string]interface{}{"status": "success"}},
			success: true,
		},
		{
			name:    "numeric status",
			log:     QuotaUsageLog{ResponseData: map[string]interface{}{"status": float64(200)}},
			success: true,
		},
		{
			name:   "nested error",
			log:    QuotaUsageLog{ResponseData: map[string]interface{}{"status": 500, "error": map[string]interface{}{"message": "rate limited"}}},
			errMsg: "rate limited",
		},
		{
			name:   "no response",
			errMsg: "未知错误",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.log.IsSuccessful(); got != tt.success {
				t.Fatalf("IsSuccessful = %v", got)
			}
			if got := tt.log.ErrorMessage(); got != tt.errMsg {
				t.Fatalf("ErrorMessage = %q, want %q", got, tt.errMsg)
			}
		})
	}

	log := QuotaUsageLog{
		InputTokens:  300,
		OutputTokens: 100,
		TotalTokens:  400,
		Cost:         0.1,
		RequestData:  map[string]interface{}{"timestamp": float64(1000)},
		ResponseData: map[string]interface{}{"timestamp": float64(1750)},
	}
	if got := log.TokenEfficiency(); got != 0.33 {
		t.Fatalf("TokenEfficiency = %v", got)
	}
	if got := log.CostPerToken(); got != 0.00025 {
		t.Fatalf("CostPerToken = %v", got)
	}
	if d, ok := log.Duration(); !ok || d != 750 {
		t.Fatalf("Duration = %d %v", d, ok)
	}

	empty := QuotaUsageLog{}
	if empty.TokenEfficiency() != 0 || empty.CostPerToken() != 0 {
		t.Fatal("zero tokens must not divide")
	}
	if _, ok := empty.Duration(); ok {
		t.Fatal("duration without timestamps")
	}
}

func TestAgentAndEnums(t *testing.T) {
	parentID := uint(1)
	if !(&Agent{}).IsTopLevel() || (&Agent{ParentID: &parentID}).IsTopLevel() {
		t.Fatal("top level is decided by parent_id")
	}
	if StatusPending.Label() != "待审核" || StatusDisabled.Color() != "danger" {
		t.Fatal("status meta")
	}
	if Status(9).Valid() || !UserTypeAdmin.Valid() || AppType("music").Valid() {
		t.Fatal("enum validity")
	}
	opts := AppTypeOptions()
	if len(opts) != 6 || opts[0].Value != "chat" || opts[0].Icon != AppTypeChat.Icon() {
		t.Fatalf("app type options = %+v", opts)
	}
	if users := UserTypeOptions(); len(users) != 2 || users[1].Label != "管理员" {
		t.Fatalf("user type options = %+v", users)
	}
}
