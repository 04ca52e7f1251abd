package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/internal/testutil"
	"saasadmin/pkg/errors"

	"gorm.io/gorm"
)

func newTenantService(t *testing.T, db *gorm.DB) *TenantService {
	t.Helper()
	s := NewTenantService(db)
	s.now = func() time.Time { return fixedNow }
	return s
}

func createTenant(t *testing.T, s *TenantService, name string, agentID uint) *models.Tenant {
	t.Helper()
	tenant, err := s.Create(1, &models.CreateTenantRequest{
		Name:          name,
		ContactName:   name + "联系人",
		ParentAgentID: agentID,
		QuotaLimit:    floatPtr(100),
	})
	if err != nil {
		t.Fatalf("create tenant %s: %v", name, err)
	}
	return tenant
}

func TestTenantServiceCreate(t *testing.T) {
	db := testutil.NewDB(t)
	agents := newAgentService(t, db)
	s := newTenantService(t, db)

	agent := createAgent(t, agents, "agent", nil)
	tenant, err := s.Create(3, &models.CreateTenantRequest{
		Name:          "acme",
		ContactName:   "x",
		ParentAgentID: agent.ID,
		QuotaLimit:    floatPtr(500),
		AdminUser:     &models.AdminUserRequest{Username: "admin", Password: "secret123"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tenant.Code[:9] != "T20260301" || tenant.Status != models.StatusNormal {
		t.Fatalf("tenant code=%q status=%d", tenant.Code, tenant.Status)
	}

	detail, err := s.GetDetail(tenant.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Agent == nil || detail.Agent.ID != agent.ID {
		t.Fatalf("detail agent = %+v", detail.Agent)
	}
	if len(detail.Users) != 1 {
		t.Fatalf("users = %d, want 1", len(detail.Users))
	}
	admin := detail.Users[0]
	if admin.QuotaLimit != 500 || admin.QuotaUsed != 0 {
		t.Fatalf("admin quota limit=%v used=%v, want tenant limit", admin.QuotaLimit, admin.QuotaUsed)
	}
	if admin.UserType != models.UserTypeAdmin || !admin.VerifyPassword("secret123") {
		t.Fatal("admin account not provisioned")
	}

	// 用户名仅在租户内唯一
	other, err := s.Create(3, &models.CreateTenantRequest{
		Name:        "other",
		ContactName: "x",
		QuotaLimit:  floatPtr(100),
		AdminUser:   &models.AdminUserRequest{Username: "admin", QuotaLimit: floatPtr(20)},
	})
	if err != nil {
		t.Fatalf("same username in another tenant: %v", err)
	}
	users, _ := repository.NewTenantRepository(db).Users(other.ID)
	if len(users) != 1 || users[0].QuotaLimit != 20 {
		t.Fatalf("explicit admin quota not applied: %+v", users)
	}

	_, err = s.UpdateByID(3, tenant.ID, &models.UpdateTenantRequest{
		AdminUser: &models.AdminUserRequest{Username: "admin"},
	})
	if !stderrors.Is(err, errors.ErrUsernameExists) {
		t.Fatalf("got %v, want UsernameExists", err)
	}
}

func TestTenantServiceAgentChecks(t *testing.T) {
	db := testutil.NewDB(t)
	agents := newAgentService(t, db)
	s := newTenantService(t, db)

	agent := createAgent(t, agents, "agent", nil)
	expired := fixedNow.Add(-time.Hour)
	if _, err := agents.UpdateByID(1, agent.ID, &models.UpdateAgentRequest{ExpireAt: &expired}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Create(1, &models.CreateTenantRequest{Name: "a", ContactName: "x", ParentAgentID: 9999})
	if !stderrors.Is(err, errors.ErrAgentNotFound) {
		t.Fatalf("got %v, want AgentNotFound", err)
	}
	_, err = s.Create(1, &models.CreateTenantRequest{Name: "b", ContactName: "x", ParentAgentID: agent.ID})
	if !stderrors.Is(err, errors.ErrAgentUnavailable) {
		t.Fatalf("got %v, want AgentUnavailable", err)
	}

	// 未分配代理的租户不做检查
	tenant := createTenant(t, s, "free", 0)
	_, err = s.UpdateByID(1, tenant.ID, &models.UpdateTenantRequest{ParentAgentID: uintPtr(agent.ID)})
	if !stderrors.Is(err, errors.ErrAgentUnavailable) {
		t.Fatalf("update: got %v, want AgentUnavailable", err)
	}
}

func TestTenantServiceUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	agents := newAgentService(t, db)
	s := newTenantService(t, db)

	agent := createAgent(t, agents, "agent", nil)
	tenant := createTenant(t, s, "acme", agent.ID)

	updated, err := s.UpdateByID(2, tenant.ID, &models.UpdateTenantRequest{Name: "acme-2", Remark: "vip"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "acme-2" || updated.ParentAgentID != agent.ID || updated.UpdatedBy != 2 {
		t.Fatalf("updated = %+v", updated)
	}

	// 显式传0取消归属
	updated, err = s.UpdateByID(2, tenant.ID, &models.UpdateTenantRequest{ParentAgentID: uintPtr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ParentAgentID != 0 {
		t.Fatalf("parent agent = %d, want 0", updated.ParentAgentID)
	}

	if _, err := s.UpdateByID(2, 9999, &models.UpdateTenantRequest{Name: "x"}); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestTenantServiceDelete(t *testing.T) {
	db := testutil.NewDB(t)
	s := newTenantService(t, db)
	usage := NewUsageService(db)
	usage.now = func() time.Time { return fixedNow }

	used := createTenant(t, s, "used", 0)
	if _, err := usage.Record(context.Background(), used.ID, &models.RecordUsageRequest{
		AppType: models.AppTypeChat, ModelName: "gpt", Cost: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteByID(used.ID); !stderrors.Is(err, errors.ErrHasUsageRecords) {
		t.Fatalf("got %v, want HasUsageRecords", err)
	}

	idle := createTenant(t, s, "idle", 0)
	if err := s.DeleteByID(idle.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetInfo(idle.ID); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("deleted tenant still visible: %v", err)
	}
}

func TestTenantServiceStatistics(t *testing.T) {
	db := testutil.NewDB(t)
	agents := newAgentService(t, db)
	s := newTenantService(t, db)

	a := createAgent(t, agents, "a", nil)
	b := createAgent(t, agents, "b", nil)
	t1 := createTenant(t, s, "t1", a.ID)
	t2 := createTenant(t, s, "t2", a.ID)
	createTenant(t, s, "t3", b.ID)

	// 已过期且超限的租户会被重复扣减
	db.Model(&models.Tenant{}).Where("id = ?", t2.ID).Updates(map[string]interface{}{
		"expire_at":  fixedNow.AddDate(0, 0, -1),
		"quota_used": 100,
	})
	if _, err := s.BatchUpdateStatus(1, []uint{t1.ID}, models.StatusPending); err != nil {
		t.Fatal(err)
	}

	stats, err := s.GetStatistics(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := models.Statistics{Total: 2, Active: 1, Inactive: 1, Expired: 1, QuotaExceeded: 1, Available: -1}
	if *stats != want {
		t.Fatalf("stats = %+v, want %+v", *stats, want)
	}

	all, err := s.GetStatistics(0)
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 {
		t.Fatalf("all tenants = %d, want 3", all.Total)
	}
}

func TestTenantServiceQuotaAndReports(t *testing.T) {
	db := testutil.NewDB(t)
	s := newTenantService(t, db)

	soon := createTenant(t, s, "soon", 0)
	busy := createTenant(t, s, "busy", 0)
	db.Model(&models.Tenant{}).Where("id = ?", soon.ID).Update("expire_at", fixedNow.AddDate(0, 0, 2))
	db.Model(&models.Tenant{}).Where("id = ?", busy.ID).Update("quota_used", 90)

	expiring, err := s.GetExpiringTenants(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(expiring) != 1 || expiring[0].ID != soon.ID {
		t.Fatalf("expiring = %v", expiring)
	}
	high, err := s.GetHighQuotaUsageTenants(0.8)
	if err != nil {
		t.Fatal(err)
	}
	if len(high) != 1 || high[0].ID != busy.ID {
		t.Fatalf("high usage = %v", high)
	}

	adjusted, err := s.AdjustQuota(1, busy.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if adjusted.QuotaLimit != 200 || adjusted.QuotaUsed != 90 {
		t.Fatalf("adjust: %+v", adjusted.Ledger)
	}
	reset, err := s.ResetQuota(1, busy.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reset.QuotaLimit != 200 || reset.QuotaUsed != 0 {
		t.Fatalf("reset: %+v", reset.Ledger)
	}

	items, total, err := s.List(repository.TenantFilter{CommonFilter: repository.CommonFilter{Code: "T2026"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("list: total=%d items=%d", total, len(items))
	}
}
