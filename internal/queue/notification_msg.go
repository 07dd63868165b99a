package queue

import "fmt"

// NotificationMessage 是流经 outbox -> Kafka -> 投递端的通知事件。
type NotificationMessage struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"` // 手机号或邮箱
	Kind      string `json:"kind"`
	Body      string `json:"body"`
}

// Validate 做最小字段校验，防止投递端处理脏消息。
func (m NotificationMessage) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("message_id is required")
	}
	if m.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if m.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if m.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}
