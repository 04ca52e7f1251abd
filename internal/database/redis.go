package database

import (
	"saasadmin/pkg/config"
	"saasadmin/pkg/queue"
)

var noticeQueue *queue.RedisQueue

// InitializeRedis 按配置创建通知队列，与 Initialize 一样在启动时调用一次
func InitializeRedis(cfg config.RedisConfig) *queue.RedisQueue {
	noticeQueue = queue.NewRedisQueue(cfg)
	return noticeQueue
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if noticeQueue == nil {
		return nil
	}
	return noticeQueue.Close()
}
