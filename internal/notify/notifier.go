package notify

import (
	"context"
	"log"

	"agri_market/internal/queue"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// 通知类别，消费端据此选择措辞 / 渠道。
const (
	KindOrderConfirmed = "order_confirmed"
	KindSellerSale     = "seller_sale"
	KindStatusUpdate   = "status_update"
)

// Notifier 尽力而为的外发通知（短信 / 邮件语义）。
// 返回值仅表示是否成功投递出去，调用方不得据此回滚任何事务。
type Notifier interface {
	Notify(ctx context.Context, recipient, kind, body string) bool
}

// LogNotifier 开发 / 测试环境的兜底实现：只打日志。
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, recipient, kind, body string) bool {
	log.Printf("[notify] kind=%s to=%s msg=%q", kind, recipient, body)
	return true
}

// OutboxNotifier 把通知原子写入 Redis Stream，
// 由 Relay 异步转发 Kafka、投递端统一发送。
// 写入失败只打日志（通知是旁路副作用，绝不向上抛）。
type OutboxNotifier struct {
	rdb    *rd.Client
	stream string
}

func NewOutboxNotifier(rdb *rd.Client, stream string) *OutboxNotifier {
	return &OutboxNotifier{rdb: rdb, stream: stream}
}

func (o *OutboxNotifier) Notify(ctx context.Context, recipient, kind, body string) bool {
	msg := queue.NotificationMessage{
		MessageID: uuid.New().String(),
		Recipient: recipient,
		Kind:      kind,
		Body:      body,
	}
	err := o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: map[string]any{
			"message_id": msg.MessageID,
			"recipient":  msg.Recipient,
			"kind":       msg.Kind,
			"body":       msg.Body,
		},
	}).Err()
	if err != nil {
		log.Printf("notify outbox xadd: %v", err)
		return false
	}
	return true
}
