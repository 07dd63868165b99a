package account

import (
	"context"
	"errors"

	"agri_market/internal/model"

	"gorm.io/gorm"
)

// ErrUserNotFound 待删除用户不存在。
var ErrUserNotFound = errors.New("user not found")

// Service 账户管理。目前只有后台的删号级联。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RemoveUser 删除用户并级联其全部数据，单事务：
// 买家侧删订单（连行 / 状态历史 / 备注）、购物车、反馈、评价；
// 卖家侧删其全部在售商品，并像售罄下架一样收尾所有引用。
// 打款流水不删：Payout 是财务账，挂的是历史上真实发生过的结算。
func (s *Service) RemoveUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var orderIDs []uint
		if err := tx.Model(&model.Order{}).Where("buyer_id = ?", userID).
			Pluck("id", &orderIDs).Error; err != nil {
			return err
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&model.OrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&model.OrderStatusHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&model.OrderNote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("buyer_id = ?", userID).Delete(&model.Order{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("buyer_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("buyer_id = ?", userID).Delete(&model.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("buyer_id = ?", userID).Delete(&model.ProductReview{}).Error; err != nil {
			return err
		}

		var productIDs []uint
		if err := tx.Model(&model.Product{}).Where("seller_id = ?", userID).
			Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) > 0 {
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.CartItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.ProductReview{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.OrderItem{}).Where("product_id IN ?", productIDs).
				Update("product_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Where("seller_id = ?", userID).Delete(&model.Product{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.User{}, userID).Error
	})
}
