package review

import (
	"context"
	"testing"

	"agri_market/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return &fixture{db: db, svc: NewService(db)}
}

func (f *fixture) seedUser(t *testing.T, name, role string) model.User {
	t.Helper()
	u := model.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) seedProduct(t *testing.T, sellerID uint) model.Product {
	t.Helper()
	p := model.Product{Name: "Tomato", Category: "vegetables", Price: 30, Quantity: 10, Unit: "kg", SellerID: sellerID}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

// seedPurchase 给买家造一条指定状态的历史订单行。
func (f *fixture) seedPurchase(t *testing.T, buyerID uint, prod model.Product, status model.OrderStatus) {
	t.Helper()
	order := model.Order{BuyerID: buyerID, TotalAmount: 60, PaymentMode: model.PaymentCOD, Status: status}
	require.NoError(t, f.db.Create(&order).Error)
	pid := prod.ID
	item := model.OrderItem{OrderID: order.ID, ProductID: &pid, SellerID: prod.SellerID,
		ProductName: prod.Name, Price: prod.Price, Quantity: 2}
	require.NoError(t, f.db.Create(&item).Error)
}

func TestAddReviewRequiresPurchase(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, "asha", model.RoleBuyer)
	seller := f.seedUser(t, "ravi", model.RoleSeller)
	p := f.seedProduct(t, seller.ID)

	_, err := f.svc.AddReview(context.Background(), p.ID, buyer.ID, 5, "great")
	require.ErrorIs(t, err, ErrNotPurchased)

	// Confirmed 还不算买到
	f.seedPurchase(t, buyer.ID, p, model.StatusConfirmed)
	_, err = f.svc.AddReview(context.Background(), p.ID, buyer.ID, 5, "great")
	require.ErrorIs(t, err, ErrNotPurchased)

	f.seedPurchase(t, buyer.ID, p, model.StatusDelivered)
	r, err := f.svc.AddReview(context.Background(), p.ID, buyer.ID, 5, "great")
	require.NoError(t, err)
	require.Equal(t, 5, r.Rating)
}

func TestAddReviewOncePerBuyer(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, "asha", model.RoleBuyer)
	seller := f.seedUser(t, "ravi", model.RoleSeller)
	p := f.seedProduct(t, seller.ID)
	f.seedPurchase(t, buyer.ID, p, model.StatusCompleted)

	_, err := f.svc.AddReview(context.Background(), p.ID, buyer.ID, 4, "good")
	require.NoError(t, err)
	_, err = f.svc.AddReview(context.Background(), p.ID, buyer.ID, 5, "changed my mind")
	require.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestAddReviewValidation(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, "asha", model.RoleBuyer)

	_, err := f.svc.AddReview(context.Background(), 1, buyer.ID, 0, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.AddReview(context.Background(), 1, buyer.ID, 6, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.AddReview(context.Background(), 999, buyer.ID, 3, "")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductReviewsAverages(t *testing.T) {
	f := newFixture(t)
	seller := f.seedUser(t, "ravi", model.RoleSeller)
	p := f.seedProduct(t, seller.ID)
	for i, rating := range []int{5, 4, 3} {
		buyer := f.seedUser(t, "buyer"+string(rune('a'+i)), model.RoleBuyer)
		f.seedPurchase(t, buyer.ID, p, model.StatusDelivered)
		_, err := f.svc.AddReview(context.Background(), p.ID, buyer.ID, rating, "ok")
		require.NoError(t, err)
	}

	sum, err := f.svc.ProductReviews(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 3, sum.ReviewCount)
	require.InDelta(t, 4.0, sum.AvgRating, 1e-9)
}

func TestFeedbackSubmitAndAdminList(t *testing.T) {
	f := newFixture(t)
	buyer := f.seedUser(t, "asha", model.RoleBuyer)

	_, err := f.svc.SubmitFeedback(context.Background(), buyer.ID, 0, "meh")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.SubmitFeedback(context.Background(), buyer.ID, 4, "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.svc.SubmitFeedback(context.Background(), buyer.ID, 4, "smooth checkout")
	require.NoError(t, err)

	entries, err := f.svc.AllFeedback(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "asha", entries[0].UserName)
	require.Equal(t, "smooth checkout", entries[0].Message)
}
