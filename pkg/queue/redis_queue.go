package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"saasadmin/pkg/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisQueue Redis通知队列
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// NoticeKind 通知类型
type NoticeKind string

const (
	NoticeAgentExpiring   NoticeKind = "agent_expiring"
	NoticeTenantExpiring  NoticeKind = "tenant_expiring"
	NoticeAgentHighUsage  NoticeKind = "agent_high_usage"
	NoticeTenantHighUsage NoticeKind = "tenant_high_usage"
)

// NoticeMessage 队列中的通知消息
type NoticeMessage struct {
	NoticeID   string     `json:"notice_id"`
	Kind       NoticeKind `json:"kind"`
	EntityID   uint       `json:"entity_id"`
	EntityCode string     `json:"entity_code"`
	EntityName string     `json:"entity_name"`
	ExpireAt   *time.Time `json:"expire_at,omitempty"`
	UsageRate  float64    `json:"usage_rate,omitempty"`
	Created    int64      `json:"created"`
}

// NewRedisQueue 按配置创建队列，连接在首次命令时建立
func NewRedisQueue(cfg config.RedisConfig) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return NewRedisQueueWithClient(client, cfg.Prefix)
}

// NewRedisQueueWithClient 使用已有客户端创建队列
func NewRedisQueueWithClient(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "saasadmin:queue"
	}
	return &RedisQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue 将通知加入队列。同一实体同类通知每天只入队一次，重复时返回 false
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, message *NoticeMessage) (bool, error) {
	dedupeKey := q.getDedupeKey(message.Kind, message.EntityID, time.Now())
	ok, err := q.client.SetNX(ctx, dedupeKey, 1, 24*time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("写入去重标记失败: %v", err)
	}
	if !ok {
		return false, nil
	}

	if message.NoticeID == "" {
		message.NoticeID = uuid.New().String()
	}
	if message.Created == 0 {
		message.Created = time.Now().Unix()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return false, fmt.Errorf("序列化通知消息失败: %v", err)
	}

	// 左侧入队，消费方右侧出队
	if err := q.client.LPush(ctx, q.getQueueKey(queueName), data).Err(); err != nil {
		q.client.Del(ctx, dedupeKey)
		return false, fmt.Errorf("通知入队失败: %v", err)
	}
	return true, nil
}

// Dequeue 取出最早入队的一条通知，队列为空时返回 nil
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string) (*NoticeMessage, error) {
	data, err := q.client.RPop(ctx, q.getQueueKey(queueName)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取通知失败: %v", err)
	}

	var message NoticeMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("解析通知消息失败: %v", err)
	}
	return &message, nil
}

// Length 队列长度
func (q *RedisQueue) Length(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, q.getQueueKey(queueName)).Result()
}

// getQueueKey 获取队列键名
func (q *RedisQueue) getQueueKey(queueName string) string {
	return fmt.Sprintf("%s:%s", q.prefix, queueName)
}

// getDedupeKey 获取去重键名，按自然日区分
func (q *RedisQueue) getDedupeKey(kind NoticeKind, entityID uint, now time.Time) string {
	return fmt.Sprintf("%s:sent:%s:%d:%s", q.prefix, kind, entityID, now.Format("20060102"))
}
