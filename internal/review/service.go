package review

import (
	"context"
	"errors"
	"strings"

	"agri_market/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在（或已下架删除）。
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidRating 星级必须在 1~5。
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrNotPurchased 只有真正买到过（Delivered / Completed）的买家才能评价。
	ErrNotPurchased = errors.New("you can only review products you have purchased")
	// ErrAlreadyReviewed 每个买家对同一商品最多一条评价。
	ErrAlreadyReviewed = errors.New("product already reviewed")
	// ErrEmptyMessage 平台反馈内容不能为空。
	ErrEmptyMessage = errors.New("feedback message is empty")
)

// ProductSummary 商品评价聚合。
type ProductSummary struct {
	AvgRating   float64               `json:"avg_rating"`
	ReviewCount int                   `json:"review_count"`
	Reviews     []model.ProductReview `json:"reviews"`
}

// FeedbackEntry 后台反馈列表行，带上用户名方便展示。
type FeedbackEntry struct {
	model.Feedback
	UserName string `json:"user_name"`
}

// Service 商品评价与平台反馈。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddReview 买家给买到过的商品打星。
// 购买判定：该买家任一 Delivered / Completed 订单里出现过这个商品。
func (s *Service) AddReview(ctx context.Context, productID, buyerID uint, rating int, text string) (*model.ProductReview, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	db := s.db.WithContext(ctx)

	var prod model.Product
	if err := db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var purchased int64
	err := db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ?", buyerID).
		Where("order_items.product_id = ?", productID).
		Where("orders.status IN ?", []model.OrderStatus{model.StatusDelivered, model.StatusCompleted}).
		Count(&purchased).Error
	if err != nil {
		return nil, err
	}
	if purchased == 0 {
		return nil, ErrNotPurchased
	}

	var dup int64
	if err := db.Model(&model.ProductReview{}).
		Where("product_id = ? AND buyer_id = ?", productID, buyerID).
		Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, ErrAlreadyReviewed
	}

	r := model.ProductReview{
		ProductID:  productID,
		BuyerID:    buyerID,
		Rating:     rating,
		ReviewText: strings.TrimSpace(text),
	}
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ProductReviews 商品详情页的评价列表 + 平均星级。
func (s *Service) ProductReviews(ctx context.Context, productID uint) (ProductSummary, error) {
	var reviews []model.ProductReview
	if err := s.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return ProductSummary{}, err
	}
	sum := ProductSummary{Reviews: reviews, ReviewCount: len(reviews)}
	for _, r := range reviews {
		sum.AvgRating += float64(r.Rating)
	}
	if sum.ReviewCount > 0 {
		sum.AvgRating /= float64(sum.ReviewCount)
	}
	return sum, nil
}

// SubmitFeedback 平台整体反馈，不挂具体商品。
func (s *Service) SubmitFeedback(ctx context.Context, buyerID uint, rating int, message string) (*model.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	fb := model.Feedback{BuyerID: buyerID, Rating: rating, Message: message}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

// AllFeedback 后台按时间倒序查看全部反馈，带提交人名字。
func (s *Service) AllFeedback(ctx context.Context) ([]FeedbackEntry, error) {
	var entries []FeedbackEntry
	err := s.db.WithContext(ctx).Model(&model.Feedback{}).
		Select("feedback.*, users.name AS user_name").
		Joins("JOIN users ON users.id = feedback.buyer_id").
		Order("feedback.created_at DESC, feedback.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
