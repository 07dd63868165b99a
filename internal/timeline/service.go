package timeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"agri_market/internal/model"
	"agri_market/internal/notify"

	"gorm.io/gorm"
)

var (
	// ErrUnknownStatus 目标状态不在闭集内。
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrOrderNotFound 订单不存在。
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoteNotFound 备注不存在。
	ErrNoteNotFound = errors.New("note not found")
	// ErrEmptyNote 备注内容为空。
	ErrEmptyNote = errors.New("note text is empty")
)

// EntryType 时间线条目类别。
const (
	EntryStatus = "status"
	EntryNote   = "note"
)

// Entry 买家侧时间线条目：状态流转与公开备注按时间升序合并。
type Entry struct {
	Type     string            `json:"type"`
	At       time.Time         `json:"at"`
	Status   model.OrderStatus `json:"status,omitempty"`
	Text     string            `json:"text,omitempty"`
	AuthorID uint              `json:"author_id,omitempty"`
}

// Service 订单状态流转与审计时间线。
// 状态转移刻意不设转移表：闭集内任意取值都接受
// （运营纠错需要，如 Delivered 拨回 Shipped），集合外才拒绝。
// 每次转移都追加一条不可变历史，当前 status 字段之外
// "何时发生过什么"以历史为准。
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewService(db *gorm.DB, n notify.Notifier) *Service {
	return &Service{db: db, notifier: n}
}

// SetStatus 把订单置为新状态并追加历史，提交后通知买家。
// Shipped / Delivered 有专属措辞，其余走通用更新文案。
func (s *Service) SetStatus(ctx context.Context, orderID uint, status model.OrderStatus) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}

	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Order{}).Where("id = ?", orderID).
			Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(&model.OrderStatusHistory{OrderID: orderID, Status: status}).Error
	})
	if err != nil {
		return err
	}

	if r := s.recipient(ctx, order.BuyerID); r != "" {
		s.notifier.Notify(ctx, r, notify.KindStatusUpdate, statusMessage(orderID, status))
	}
	return nil
}

func statusMessage(orderID uint, status model.OrderStatus) string {
	switch status {
	case model.StatusShipped:
		return fmt.Sprintf("Order #%d has been shipped and is on its way.", orderID)
	case model.StatusDelivered:
		return fmt.Sprintf("Order #%d has been delivered. Thank you for shopping with us!", orderID)
	default:
		return fmt.Sprintf("Order #%d status updated to %s.", orderID, status)
	}
}

// AddNote 追加一条运营备注；公开备注会出现在买家时间线里。
func (s *Service) AddNote(ctx context.Context, orderID, authorID uint, text string, isPublic bool) (*model.OrderNote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyNote
	}
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	note := model.OrderNote{OrderID: orderID, AuthorID: authorID, Text: text, IsPublic: isPublic}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote 编辑备注文本并记录编辑时间；备注正常流程不删除。
func (s *Service) UpdateNote(ctx context.Context, noteID uint, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyNote
	}
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&model.OrderNote{}).Where("id = ?", noteID).
		Updates(map[string]any{"text": text, "edited_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// View 返回订单时间线：状态历史 + 公开备注，按时间升序合并。
// 老数据没有任何历史时，先按当前状态懒回填一条再渲染。
func (s *Service) View(ctx context.Context, orderID uint) ([]Entry, error) {
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var hist []model.OrderStatusHistory
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at, id").Find(&hist).Error; err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		backfill := model.OrderStatusHistory{OrderID: orderID, Status: order.Status}
		if err := s.db.WithContext(ctx).Create(&backfill).Error; err != nil {
			return nil, err
		}
		hist = append(hist, backfill)
	}

	var notes []model.OrderNote
	if err := s.db.WithContext(ctx).Where("order_id = ? AND is_public = ?", orderID, true).
		Order("created_at, id").Find(&notes).Error; err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(hist)+len(notes))
	for _, h := range hist {
		entries = append(entries, Entry{Type: EntryStatus, At: h.CreatedAt, Status: h.Status})
	}
	for _, n := range notes {
		entries = append(entries, Entry{Type: EntryNote, At: n.CreatedAt, Text: n.Text, AuthorID: n.AuthorID})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })
	return entries, nil
}

func (s *Service) recipient(ctx context.Context, userID uint) string {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return ""
	}
	if u.Phone != "" {
		return u.Phone
	}
	return u.Email
}
