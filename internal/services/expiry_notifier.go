package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/config"
	"saasadmin/pkg/logger"
	"saasadmin/pkg/queue"

	"github.com/robfig/cron/v3"
)

// NoticePublisher 通知投递
type NoticePublisher interface {
	Enqueue(ctx context.Context, queueName string, message *queue.NoticeMessage) (bool, error)
}

// ExpiryNotifier 定时扫描即将到期与配额使用率过高的代理、租户，投递提醒
type ExpiryNotifier struct {
	agents    *AgentService
	tenants   *TenantService
	publisher NoticePublisher
	cfg       config.NotifierConfig

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewExpiryNotifier 创建到期提醒调度器
func NewExpiryNotifier(agents *AgentService, tenants *TenantService, publisher NoticePublisher, cfg config.NotifierConfig) *ExpiryNotifier {
	return &ExpiryNotifier{
		agents:    agents,
		tenants:   tenants,
		publisher: publisher,
		cfg:       cfg,
		cron:      cron.New(),
	}
}

// Start 启动调度器
func (n *ExpiryNotifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("到期提醒调度器已经在运行")
	}
	if _, err := cron.ParseStandard(n.cfg.Spec); err != nil {
		return fmt.Errorf("无效的cron表达式 %s: %w", n.cfg.Spec, err)
	}

	if _, err := n.cron.AddFunc(n.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := n.RunOnce(ctx); err != nil {
			logger.GetLogger().Errorf("到期提醒执行失败: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	n.cron.Start()
	n.running = true
	logger.GetLogger().Infof("到期提醒调度器启动成功，cron: %s", n.cfg.Spec)
	return nil
}

// Stop 停止调度器，等待正在执行的任务结束
func (n *ExpiryNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return
	}
	<-n.cron.Stop().Done()
	n.running = false
	logger.GetLogger().Info("到期提醒调度器已停止")
}

// RunOnce 执行一次扫描，返回实际入队的通知数
func (n *ExpiryNotifier) RunOnce(ctx context.Context) (int, error) {
	var notices []*queue.NoticeMessage

	agents, err := n.agents.GetExpiringAgents(n.cfg.Days)
	if err != nil {
		return 0, fmt.Errorf("查询即将到期代理失败: %w", err)
	}
	for i := range agents {
		notices = append(notices, agentNotice(queue.NoticeAgentExpiring, &agents[i]))
	}

	tenants, err := n.tenants.GetExpiringTenants(n.cfg.Days)
	if err != nil {
		return 0, fmt.Errorf("查询即将到期租户失败: %w", err)
	}
	for i := range tenants {
		notices = append(notices, tenantNotice(queue.NoticeTenantExpiring, &tenants[i]))
	}

	if n.cfg.Threshold > 0 {
		busyAgents, err := n.agents.GetHighQuotaUsageAgents(n.cfg.Threshold)
		if err != nil {
			return 0, fmt.Errorf("查询高配额使用代理失败: %w", err)
		}
		for i := range busyAgents {
			notices = append(notices, agentNotice(queue.NoticeAgentHighUsage, &busyAgents[i]))
		}

		busyTenants, err := n.tenants.GetHighQuotaUsageTenants(n.cfg.Threshold)
		if err != nil {
			return 0, fmt.Errorf("查询高配额使用租户失败: %w", err)
		}
		for i := range busyTenants {
			notices = append(notices, tenantNotice(queue.NoticeTenantHighUsage, &busyTenants[i]))
		}
	}

	sent := 0
	for _, notice := range notices {
		ok, err := n.publisher.Enqueue(ctx, n.cfg.QueueName, notice)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}

	logger.GetLogger().Infof("到期提醒扫描完成，候选 %d 条，入队 %d 条", len(notices), sent)
	return sent, nil
}

func agentNotice(kind queue.NoticeKind, agent *models.Agent) *queue.NoticeMessage {
	return &queue.NoticeMessage{
		Kind:       kind,
		EntityID:   agent.ID,
		EntityCode: agent.Code,
		EntityName: agent.Name,
		ExpireAt:   agent.ExpireAt,
		UsageRate:  agent.UsageRate(),
	}
}

func tenantNotice(kind queue.NoticeKind, tenant *models.Tenant) *queue.NoticeMessage {
	return &queue.NoticeMessage{
		Kind:       kind,
		EntityID:   tenant.ID,
		EntityCode: tenant.Code,
		EntityName: tenant.Name,
		ExpireAt:   tenant.ExpireAt,
		UsageRate:  tenant.UsageRate(),
	}
}
