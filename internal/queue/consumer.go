package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// Sender 实际的外发渠道（短信 / 邮件网关）。
// 未配置网关时用 LogSender 兜底打日志，跟发送失败一样只记不抛。
type Sender interface {
	Send(ctx context.Context, recipient, body string) error
}

// LogSender 开发环境兜底：把"已发送"写进日志。
type LogSender struct{}

func (LogSender) Send(_ context.Context, recipient, body string) error {
	log.Printf("[sms] to=%s msg=%q", recipient, body)
	return nil
}

// Consumer 消费通知 topic 并投递。
// 通知是尽力而为语义：投递失败打日志后继续，不重试不回滚。
type Consumer struct {
	r      *kafka.Reader
	sender Sender
}

func NewConsumer(brokers []string, topic, groupID string, sender Sender) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		sender: sender,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancel / 连接断开等
		}

		var msg NotificationMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("notify consumer unmarshal: %v", err)
			continue
		}
		if err := msg.Validate(); err != nil {
			log.Printf("notify consumer drop invalid message: %v", err)
			continue
		}

		if err := c.sender.Send(ctx, msg.Recipient, msg.Body); err != nil {
			log.Printf("notify send id=%s: %v", msg.MessageID, err)
		}
	}
}
