package handlers

import (
	"context"

	"saasadmin/pkg/queue"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxNoticeBatch = 100

// NoticeQueue 到期提醒队列，外部投递方通过接口拉取
type NoticeQueue interface {
	Pinger
	Dequeue(ctx context.Context, queueName string) (*queue.NoticeMessage, error)
	Length(ctx context.Context, queueName string) (int64, error)
}

// NoticeHandler 到期与高用量提醒的拉取接口
type NoticeHandler struct {
	queue     NoticeQueue
	queueName string
}

func NewNoticeHandler(q NoticeQueue, queueName string) *NoticeHandler {
	return &NoticeHandler{queue: q, queueName: queueName}
}

// Pull 按入队顺序取出至多 limit 条提醒，取出即出队
func (h *NoticeHandler) Pull(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	if limit < 1 || limit > maxNoticeBatch {
		response.BadRequest(c, "limit 取值范围为 1-100")
		return
	}

	notices := make([]*queue.NoticeMessage, 0, limit)
	for len(notices) < limit {
		msg, err := h.queue.Dequeue(c.Request.Context(), h.queueName)
		if err != nil {
			response.FromError(c, err)
			return
		}
		if msg == nil {
			break
		}
		notices = append(notices, msg)
	}
	response.Success(c, notices)
}

// Stats 队列积压数量
func (h *NoticeHandler) Stats(c *gin.Context) {
	pending, err := h.queue.Length(c.Request.Context(), h.queueName)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"queue": h.queueName, "pending": pending})
}
