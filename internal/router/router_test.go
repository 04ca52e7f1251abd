package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"saasadmin/internal/handlers"
	"saasadmin/internal/testutil"
	"saasadmin/pkg/config"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type pageInfo struct {
	Total int64 `json:"total"`
}

type envelope struct {
	Code     int             `json:"code"`
	Kind     string          `json:"kind"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	PageInfo *pageInfo       `json:"page_info"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	return newServerWithNotices(t, nil)
}

func newServerWithNotices(t *testing.T, notices handlers.NoticeQueue) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		CORS:      config.CORSConfig{AllowOrigins: []string{"*"}},
		Hierarchy: config.HierarchyConfig{MaxLevel: 3},
		Notifier:  config.NotifierConfig{QueueName: "expiry_notice"},
	}
	return &server{t: t, engine: SetupRouter(cfg, testutil.NewDB(t), notices)}
}

// do 发送请求并解析统一响应，out 非空时解析 data
func (s *server) do(method, path string, body interface{}, out interface{}) envelope {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator-ID", "7")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		s.t.Fatalf("%s %s: http status %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	if out != nil && env.Code == errors.CodeSuccess {
		if err := json.Unmarshal(env.Data, out); err != nil {
			s.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
	return env
}

type agentResp struct {
	ID         uint    `json:"id"`
	Code       string  `json:"code"`
	Level      int     `json:"level"`
	Path       string  `json:"path"`
	ParentID   *uint   `json:"parent_id"`
	QuotaLimit float64 `json:"quota_limit"`
	QuotaUsed  float64 `json:"quota_used"`
	CreatedBy  uint    `json:"created_by"`
}

func (s *server) createAgent(name string, parentID *uint) agentResp {
	s.t.Helper()
	body := gin.H{"name": name, "contact_name": "c", "quota_limit": 1000}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	var agent agentResp
	if env := s.do(http.MethodPost, "/api/v1/agents", body, &agent); env.Code != errors.CodeSuccess {
		s.t.Fatalf("create agent %s: %d %s", name, env.Code, env.Message)
	}
	return agent
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	var data struct {
		Status string `json:"status"`
	}
	s.do(http.MethodGet, "/api/v1/health", nil, &data)
	if data.Status != "ok" {
		t.Fatalf("status = %q", data.Status)
	}
}

func TestRequestIDEcho(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("request id = %q", got)
	}

	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not generated")
	}
}

func TestInvalidOperatorHeader(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil)
	req.Header.Set("X-Operator-ID", "abc")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Code != errors.CodeInvalidParam {
		t.Fatalf("code = %d, want %d", env.Code, errors.CodeInvalidParam)
	}
}

func TestAgentLifecycle(t *testing.T) {
	s := newServer(t)
	hq := s.createAgent("HQ", nil)
	if hq.Level != 1 || hq.CreatedBy != 7 {
		t.Fatalf("hq = %+v", hq)
	}
	branch := s.createAgent("Branch", &hq.ID)
	if branch.Level != 2 || branch.Path != fmt.Sprint(hq.ID) {
		t.Fatalf("branch = %+v", branch)
	}

	var tree []struct {
		ID uint `json:"id"`
		Children []struct {
			ID uint `json:"id"`
		} `json:"children"`
	}
	s.do(http.MethodGet, "/api/v1/agents/tree", nil, &tree)
	if len(tree) != 1 || len(tree[0].Children) != 1 || tree[0].Children[0].ID != branch.ID {
		t.Fatalf("tree = %+v", tree)
	}

	// 自己作为上级由校验器拦截
	env := s.do(http.MethodPut, fmt.Sprintf("/api/v1/agents/%d", hq.ID), gin.H{"parent_id": hq.ID}, nil)
	if env.Code != errors.CodeInvalidParam || env.Message != "不能设置自己为上级代理" {
		t.Fatalf("self parent = %d %s", env.Code, env.Message)
	}

	// 下级作为上级
	env = s.do(http.MethodPut, fmt.Sprintf("/api/v1/agents/%d", hq.ID), gin.H{"parent_id": branch.ID}, nil)
	if env.Code != errors.ErrCycleDetected.Code || env.Message != errors.ErrCycleDetected.Message {
		t.Fatalf("cycle = %d %s", env.Code, env.Message)
	}

	env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/agents/%d", hq.ID), nil, nil)
	if env.Message != errors.ErrHasChildren.Message {
		t.Fatalf("delete with children = %d %s", env.Code, env.Message)
	}

	var scope struct {
		SubAgentIDs []uint `json:"sub_agent_ids"`
	}
	s.do(http.MethodGet, fmt.Sprintf("/api/v1/agents/%d/scope", hq.ID), nil, &scope)
	if len(scope.SubAgentIDs) != 1 || scope.SubAgentIDs[0] != branch.ID {
		t.Fatalf("scope = %+v", scope)
	}

	var list []agentResp
	env = s.do(http.MethodGet, "/api/v1/agents?page=1&page_size=10", nil, &list)
	if len(list) != 2 || env.PageInfo == nil || env.PageInfo.Total != 2 {
		t.Fatalf("list = %d items, page = %+v", len(list), env.PageInfo)
	}

	if env := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/agents/%d", branch.ID), nil, nil); env.Code != errors.CodeSuccess {
		t.Fatalf("delete branch = %d %s", env.Code, env.Message)
	}
	env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/agents/%d", branch.ID), nil, nil)
	if env.Code != errors.CodeNotFound {
		t.Fatalf("get deleted = %d", env.Code)
	}
}

func TestAgentQuotaEndpoints(t *testing.T) {
	s := newServer(t)
	hq := s.createAgent("HQ", nil)

	var agent agentResp
	s.do(http.MethodPost, fmt.Sprintf("/api/v1/agents/%d/adjust-quota", hq.ID), gin.H{"amount": 250.5}, &agent)
	if agent.QuotaLimit != 1250.5 {
		t.Fatalf("limit after adjust = %v", agent.QuotaLimit)
	}

	// 空请求体只清零已用配额
	s.do(http.MethodPost, fmt.Sprintf("/api/v1/agents/%d/reset-quota", hq.ID), nil, &agent)
	if agent.QuotaUsed != 0 || agent.QuotaLimit != 1250.5 {
		t.Fatalf("after reset = %+v", agent)
	}

	s.do(http.MethodPost, fmt.Sprintf("/api/v1/agents/%d/reset-quota", hq.ID), gin.H{"quota_limit": 50}, &agent)
	if agent.QuotaLimit != 50 {
		t.Fatalf("limit after reset = %v", agent.QuotaLimit)
	}

	if env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/agents/%d/adjust-quota", hq.ID), gin.H{"amount": -60}, nil); env.Code != errors.ErrInvalidQuota.Code {
		t.Fatalf("negative limit = %d %s", env.Code, env.Message)
	}

	env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/agents/%d/adjust-quota", hq.ID), gin.H{}, nil)
	if env.Code != errors.CodeInvalidParam {
		t.Fatalf("missing amount = %d", env.Code)
	}
}

func TestTenantUsageFlow(t *testing.T) {
	s := newServer(t)
	hq := s.createAgent("HQ", nil)

	var tenant struct {
		ID            uint `json:"id"`
		ParentAgentID uint `json:"parent_agent_id"`
	}
	env := s.do(http.MethodPost, "/api/v1/tenants", gin.H{
		"name":            "acme",
		"contact_name":    "c",
		"parent_agent_id": hq.ID,
		"quota_limit":     10,
	}, &tenant)
	if env.Code != errors.CodeSuccess || tenant.ParentAgentID != hq.ID {
		t.Fatalf("create tenant = %d %s %+v", env.Code, env.Message, tenant)
	}

	var app struct {
		ID uint `json:"id"`
	}
	env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/apps", tenant.ID), gin.H{
		"app_type":    "chat",
		"app_name":    "客服",
		"quota_limit": 5,
	}, &app)
	if env.Code != errors.CodeSuccess {
		t.Fatalf("create app = %d %s", env.Code, env.Message)
	}

	usagePath := fmt.Sprintf("/api/v1/tenants/%d/usage", tenant.ID)
	record := gin.H{"app_type": "chat", "model_name": "m1", "input_tokens": 10, "output_tokens": 5, "cost": 3}
	var log struct {
		RequestID string `json:"request_id"`
	}
	if env := s.do(http.MethodPost, usagePath, record, &log); env.Code != errors.CodeSuccess || log.RequestID == "" {
		t.Fatalf("record = %d %s %+v", env.Code, env.Message, log)
	}

	// 应用配额 5，第二次 3 超限
	env = s.do(http.MethodPost, usagePath, record, nil)
	if env.Code != errors.ErrQuotaExceeded.Code {
		t.Fatalf("second record = %d %s", env.Code, env.Message)
	}

	var summary struct {
		Count       int64   `json:"count"`
		TotalTokens int64   `json:"total_tokens"`
		Cost        float64 `json:"cost"`
	}
	s.do(http.MethodGet, usagePath+"/summary?app_type=chat", nil, &summary)
	if summary.Count != 1 || summary.TotalTokens != 15 || summary.Cost != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/tenants/%d", tenant.ID), nil, nil)
	if env.Message != errors.ErrHasUsageRecords.Message {
		t.Fatalf("delete tenant = %d %s", env.Code, env.Message)
	}
	env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/agents/%d", hq.ID), nil, nil)
	if env.Message != errors.ErrHasTenants.Message {
		t.Fatalf("delete agent = %d %s", env.Code, env.Message)
	}
}

func TestTenantAdminQuotaValidation(t *testing.T) {
	s := newServer(t)
	env := s.do(http.MethodPost, "/api/v1/tenants", gin.H{
		"name":         "acme",
		"contact_name": "c",
		"quota_limit":  10,
		"admin_user":   gin.H{"username": "admin", "password": "secret1", "quota_limit": 11},
	}, nil)
	if env.Code != errors.CodeInvalidParam || env.Message != "管理员配额不能超过租户配额" {
		t.Fatalf("admin quota = %d %s", env.Code, env.Message)
	}
}

func TestOptions(t *testing.T) {
	s := newServer(t)
	var opts []struct {
		Value interface{} `json:"value"`
		Label string      `json:"label"`
	}
	s.do(http.MethodGet, "/api/v1/options/app-types", nil, &opts)
	if len(opts) != 6 {
		t.Fatalf("app types = %d", len(opts))
	}
	s.do(http.MethodGet, "/api/v1/agents/status-options", nil, &opts)
	if len(opts) != 3 {
		t.Fatalf("status options = %d", len(opts))
	}
}

func TestErrorKind(t *testing.T) {
	s := newServer(t)
	hq := s.createAgent("HQ", nil)
	branch := s.createAgent("Branch", &hq.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
		kind   string
	}{
		{
			name:   "cycle",
			method: http.MethodPut,
			path:   fmt.Sprintf("/api/v1/agents/%d", hq.ID),
			body:   gin.H{"parent_id": branch.ID},
			code:   errors.ErrCycleDetected.Code,
			kind:   "CycleDetected",
		},
		{
			name:   "negative limit",
			method: http.MethodPost,
			path:   fmt.Sprintf("/api/v1/agents/%d/adjust-quota", hq.ID),
			body:   gin.H{"amount": -5000},
			code:   errors.ErrInvalidQuota.Code,
			kind:   "InvalidQuota",
		},
		{
			name:   "missing agent",
			method: http.MethodGet,
			path:   "/api/v1/agents/9999",
			code:   errors.CodeNotFound,
			kind:   "NotFound",
		},
		{
			name:   "validation has no kind",
			method: http.MethodPut,
			path:   fmt.Sprintf("/api/v1/agents/%d", hq.ID),
			body:   gin.H{"parent_id": hq.ID},
			code:   errors.CodeInvalidParam,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := s.do(tt.method, tt.path, tt.body, nil)
			if env.Code != tt.code || env.Kind != tt.kind {
				t.Fatalf("got %d/%q, want %d/%q (%s)", env.Code, env.Kind, tt.code, tt.kind, env.Message)
			}
		})
	}
}

func TestPageBounds(t *testing.T) {
	s := newServer(t)
	s.createAgent("HQ", nil)

	for _, query := range []string{"page_size=101", "page=-1", "page_size=abc"} {
		if env := s.do(http.MethodGet, "/api/v1/agents?"+query, nil, nil); env.Code != errors.CodeInvalidParam {
			t.Fatalf("%s: code = %d, want %d", query, env.Code, errors.CodeInvalidParam)
		}
	}

	var list []agentResp
	env := s.do(http.MethodGet, "/api/v1/agents?page_size=100", nil, &list)
	if env.Code != errors.CodeSuccess || len(list) != 1 {
		t.Fatalf("max page size = %d, %d items", env.Code, len(list))
	}
}

func TestResponseViews(t *testing.T) {
	s := newServer(t)
	hq := s.createAgent("HQ", nil)

	var tenant struct {
		ID             uint    `json:"id"`
		RemainingQuota float64 `json:"remaining_quota"`
		IsAvailable    bool    `json:"is_available"`
	}
	s.do(http.MethodPost, "/api/v1/tenants", gin.H{
		"name":            "acme",
		"contact_name":    "c",
		"parent_agent_id": hq.ID,
		"quota_limit":     10,
	}, &tenant)

	var app struct {
		Config    map[string]interface{} `json:"config"`
		HasAPIKey bool                   `json:"has_api_key"`
		Endpoint  string                 `json:"api_endpoint"`
	}
	env := s.do(http.MethodPost, fmt.Sprintf("/api/v1/tenants/%d/apps", tenant.ID), gin.H{
		"app_type":    "chat",
		"app_name":    "客服",
		"quota_limit": 5,
		"config":      gin.H{"api_key": "sk-live-abcd1234", "api_endpoint": "https://api.example.com"},
	}, &app)
	if env.Code != errors.CodeSuccess || !app.HasAPIKey || app.Config["api_key"] != "********1234" || app.Endpoint != "https://api.example.com" {
		t.Fatalf("app = %d %s %+v", env.Code, env.Message, app)
	}

	var apps []struct {
		Config map[string]interface{} `json:"config"`
	}
	s.do(http.MethodGet, fmt.Sprintf("/api/v1/tenants/%d/apps", tenant.ID), nil, &apps)
	if len(apps) != 1 || apps[0].Config["api_key"] != "********1234" {
		t.Fatalf("app list = %+v", apps)
	}

	usagePath := fmt.Sprintf("/api/v1/tenants/%d/usage", tenant.ID)
	s.do(http.MethodPost, usagePath, gin.H{
		"app_type":      "chat",
		"model_name":    "m1",
		"input_tokens":  10,
		"output_tokens": 5,
		"cost":          3,
		"response_data": gin.H{"status": "success"},
	}, nil)
	var logs []struct {
		IsSuccessful bool `json:"is_successful"`
	}
	s.do(http.MethodGet, usagePath, nil, &logs)
	if len(logs) != 1 || !logs[0].IsSuccessful {
		t.Fatalf("usage list = %+v", logs)
	}

	s.do(http.MethodGet, fmt.Sprintf("/api/v1/tenants/%d", tenant.ID), nil, &tenant)
	if tenant.RemainingQuota != 7 || !tenant.IsAvailable {
		t.Fatalf("tenant = %+v", tenant)
	}
}

func TestNoticeEndpoints(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := queue.NewRedisQueueWithClient(client, "test")

	ctx := context.Background()
	for i, kind := range []queue.NoticeKind{queue.NoticeAgentExpiring, queue.NoticeTenantHighUsage} {
		if _, err := q.Enqueue(ctx, "expiry_notice", &queue.NoticeMessage{Kind: kind, EntityID: uint(i + 1)}); err != nil {
			t.Fatal(err)
		}
	}
	s := newServerWithNotices(t, q)

	var stats struct {
		Queue   string `json:"queue"`
		Pending int64  `json:"pending"`
	}
	s.do(http.MethodGet, "/api/v1/notices/stats", nil, &stats)
	if stats.Queue != "expiry_notice" || stats.Pending != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	var notices []queue.NoticeMessage
	s.do(http.MethodGet, "/api/v1/notices?limit=1", nil, &notices)
	if len(notices) != 1 || notices[0].Kind != queue.NoticeAgentExpiring {
		t.Fatalf("first pull = %+v", notices)
	}
	s.do(http.MethodGet, "/api/v1/notices", nil, &notices)
	if len(notices) != 1 || notices[0].Kind != queue.NoticeTenantHighUsage {
		t.Fatalf("second pull = %+v", notices)
	}
	s.do(http.MethodGet, "/api/v1/notices", nil, &notices)
	if len(notices) != 0 {
		t.Fatalf("drained queue returned %d notices", len(notices))
	}

	if env := s.do(http.MethodGet, "/api/v1/notices?limit=101", nil, nil); env.Code != errors.CodeInvalidParam {
		t.Fatalf("limit 101 = %d", env.Code)
	}

	var health struct {
		Status string `json:"status"`
	}
	s.do(http.MethodGet, "/api/v1/health", nil, &health)
	if health.Status != "ok" {
		t.Fatalf("health with redis = %q", health.Status)
	}
}
