package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"agri_market/internal/account"
	"agri_market/internal/cart"
	"agri_market/internal/config"
	"agri_market/internal/middleware"
	"agri_market/internal/model"
	"agri_market/internal/payment"
	"agri_market/internal/payout"
	"agri_market/internal/pricing"
	"agri_market/internal/review"
	"agri_market/internal/stats"
	"agri_market/internal/settings"
	"agri_market/internal/settlement"
	"agri_market/internal/timeline"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps 路由层依赖集合，main 装配后注入。
type Deps struct {
	DB       *gorm.DB
	RDB      *rd.Client // 可为 nil
	Cart     *cart.Service
	Engine   *settlement.Engine
	Timeline *timeline.Service
	Payout   *payout.Reconciler
	Settings *settings.Store
	Gateway  *payment.Razorpay
	Review   *review.Service
	Stats    *stats.Service
	Account  *account.Service
	Cfg      config.AppConfig
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// Products
	r.GET("/api/products", listProducts(d.DB))
	r.POST("/api/products", createProduct(d.DB))
	r.PUT("/api/products/:id", updateProduct(d.DB, d.Cfg.AdminToken))
	r.DELETE("/api/products/:id", deleteProduct(d.DB, d.Cfg.AdminToken))

	// Reviews & feedback
	r.GET("/api/products/:id/reviews", listReviews(d.Review))
	r.POST("/api/products/:id/reviews", addReview(d.Review))
	r.POST("/api/feedback", submitFeedback(d.Review))

	// Cart
	r.GET("/api/cart", getCart(d.Cart))
	r.POST("/api/cart/:product_id", addToCart(d.Cart))
	r.POST("/api/cart/:product_id/:action", updateCart(d.Cart))
	r.DELETE("/api/cart/:product_id", removeFromCart(d.Cart))
	r.DELETE("/api/cart", clearCart(d.Cart))

	// Checkout & payment
	r.POST("/api/checkout",
		middleware.CheckoutRateLimit(d.RDB, d.Cfg.CheckoutRateLimit, d.Cfg.CheckoutRateWindow),
		checkout(d.Engine))
	r.POST("/api/buy_now", buyNow(d.Engine))
	r.POST("/api/payment/create", createPayment(d.Cart, d.Settings, d.Gateway))
	r.POST("/api/payment/verify", verifyPayment(d.Engine, d.Gateway))

	// Orders (buyer)
	r.GET("/api/orders", listOrders(d.DB))
	r.GET("/api/orders/:id/timeline", viewTimeline(d.Timeline))

	// Admin
	admin := r.Group("/api/admin", adminOnly(d.Cfg.AdminToken))
	admin.GET("/orders", adminListOrders(d.DB))
	admin.POST("/orders/:id/status", updateOrderStatus(d.Timeline))
	admin.POST("/orders/:id/assign", assignDelivery(d.DB))
	admin.POST("/orders/:id/notes", addNote(d.Timeline))
	admin.PUT("/notes/:id", editNote(d.Timeline))
	admin.GET("/payouts/:seller_id", pendingBalance(d.Payout))
	admin.POST("/payouts/:seller_id", processPayout(d.Payout))
	admin.GET("/settings", getSettings(d.Settings))
	admin.PUT("/settings", putSettings(d.Settings))
	admin.GET("/low_stock", lowStock(d.DB))
	admin.GET("/feedback", listFeedback(d.Review))
	admin.GET("/analytics", dashboard(d.Stats))
	admin.GET("/chart-data", chartData(d.Stats))
	admin.DELETE("/users/:id", removeUser(d.Account))
}

// adminOnly 简单管理员 token 校验，避免后台接口被任意调用。
func adminOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "invalid admin token"})
			return
		}
		c.Next()
	}
}

func listProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Order("id")
		if cat := c.Query("category"); cat != "" {
			q = q.Where("category = ?", cat)
		}
		var list []model.Product
		if err := q.Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

func createProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string  `json:"name" binding:"required"`
			Category string  `json:"category" binding:"required"`
			Price    float64 `json:"price" binding:"required,gt=0"`
			Quantity int     `json:"quantity" binding:"required,min=1"`
			Unit     string  `json:"unit"`
			SellerID uint    `json:"seller_id" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if req.Unit == "" {
			req.Unit = "kg"
		}
		p := &model.Product{
			Name:     req.Name,
			Category: req.Category,
			Price:    req.Price,
			Quantity: req.Quantity,
			Unit:     req.Unit,
			SellerID: req.SellerID,
		}
		if err := db.Create(p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
	}
}

func updateProduct(db *gorm.DB, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		if !ownsProduct(c, db, id, adminToken) {
			return
		}
		var req struct {
			Name     string  `json:"name" binding:"required"`
			Category string  `json:"category" binding:"required"`
			Price    float64 `json:"price" binding:"required,gt=0"`
			Quantity int     `json:"quantity" binding:"min=0"`
			Unit     string  `json:"unit" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		err := db.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]any{
			"name":     req.Name,
			"category": req.Category,
			"price":    req.Price,
			"quantity": req.Quantity,
			"unit":     req.Unit,
		}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "updated"})
	}
}

func deleteProduct(db *gorm.DB, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		if !ownsProduct(c, db, id, adminToken) {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return settlement.PurgeProduct(tx, id)
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
	}
}

// ownsProduct 卖家只能改自己的商品（seller_id 参数），管理员令牌放行任意商品。
// 未命中时已写好响应，调用方直接 return。
func ownsProduct(c *gin.Context, db *gorm.DB, productID uint, adminToken string) bool {
	var prod model.Product
	if err := db.First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		}
		return false
	}
	if c.GetHeader("X-Admin-Token") == adminToken {
		return true
	}
	sellerID, err := strconv.ParseUint(c.Query("seller_id"), 10, 32)
	if err != nil || uint(sellerID) != prod.SellerID {
		c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "not your product"})
		return false
	}
	return true
}

func listReviews(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		sum, err := svc.ProductReviews(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": sum})
	}
}

func addReview(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		var req struct {
			BuyerID    uint   `json:"buyer_id" binding:"required,min=1"`
			Rating     int    `json:"rating" binding:"required"`
			ReviewText string `json:"review_text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		r, err := svc.AddReview(c.Request.Context(), id, req.BuyerID, req.Rating, req.ReviewText)
		switch {
		case errors.Is(err, review.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "product not found"})
		case errors.Is(err, review.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "rating must be between 1 and 5"})
		case errors.Is(err, review.ErrNotPurchased):
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "you can only review products you have purchased"})
		case errors.Is(err, review.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "you have already reviewed this product"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": r})
		}
	}
}

func submitFeedback(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BuyerID uint   `json:"buyer_id" binding:"required,min=1"`
			Rating  int    `json:"rating" binding:"required"`
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		fb, err := svc.SubmitFeedback(c.Request.Context(), req.BuyerID, req.Rating, req.Message)
		switch {
		case errors.Is(err, review.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "rating must be between 1 and 5"})
		case errors.Is(err, review.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "feedback message is empty"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": fb})
		}
	}
}

func getCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		d, err := svc.Details(buyerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		n, _ := svc.Count(buyerID)
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"lines": d.Lines, "subtotal": d.Subtotal, "count": n}})
	}
}

func addToCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		productID, ok := paramUint(c, "product_id")
		if !ok {
			return
		}
		if err := svc.Add(buyerID, productID); err != nil {
			cartError(c, err)
			return
		}
		n, _ := svc.Count(buyerID)
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"cart_count": n}})
	}
}

func updateCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		productID, ok := paramUint(c, "product_id")
		if !ok {
			return
		}
		var err error
		switch c.Param("action") {
		case "increase":
			err = svc.Increase(buyerID, productID)
		case "decrease":
			err = svc.Decrease(buyerID, productID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "action must be increase or decrease"})
			return
		}
		if err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "updated"})
	}
}

func removeFromCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		productID, ok := paramUint(c, "product_id")
		if !ok {
			return
		}
		if err := svc.Remove(buyerID, productID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "removed"})
	}
}

func clearCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		if err := svc.Clear(buyerID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "cleared"})
	}
}

// checkout 购物车结算入口。
// 在线支付（Razorpay）必须走 /api/payment/verify，验签通过才结算；
// 这里只接受 COD / UPI。
func checkout(engine *settlement.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BuyerID         uint    `json:"buyer_id" binding:"required,min=1"`
			PaymentMode     string  `json:"payment_mode" binding:"required"`
			ShippingAddress string  `json:"shipping_address" binding:"required"`
			DistanceKm      float64 `json:"distance_km"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		mode := model.PaymentMode(req.PaymentMode)
		if mode == model.PaymentRazorpay {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "online payment must go through /api/payment/verify"})
			return
		}

		order, err := engine.Settle(c.Request.Context(), settlement.SettleInput{
			BuyerID:         req.BuyerID,
			PaymentMode:     mode,
			ShippingAddress: req.ShippingAddress,
			DistanceKm:      req.DistanceKm,
		})
		if err != nil {
			settlementError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

func buyNow(engine *settlement.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BuyerID         uint   `json:"buyer_id" binding:"required,min=1"`
			ProductID       uint   `json:"product_id" binding:"required,min=1"`
			Quantity        int    `json:"quantity" binding:"required,min=1"`
			ShippingAddress string `json:"shipping_address" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		order, err := engine.BuyNow(c.Request.Context(), settlement.BuyNowInput{
			BuyerID:         req.BuyerID,
			ProductID:       req.ProductID,
			Quantity:        req.Quantity,
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			settlementError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// createPayment 为前端创建网关支付单：金额 = 当前购物车小计 + 按距离报价的运费。
// 金额只是网关侧预授权，真正冻结价格在验签后的结算事务里。
func createPayment(cartSvc *cart.Service, st *settings.Store, gw *payment.Razorpay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BuyerID    uint    `json:"buyer_id" binding:"required,min=1"`
			DistanceKm float64 `json:"distance_km"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		d, err := cartSvc.Details(req.BuyerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if len(d.Lines) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "cart is empty"})
			return
		}
		grand := d.Subtotal + chargeFor(st, d.Subtotal, req.DistanceKm)
		gwOrder, err := gw.CreateOrder(grand)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "online payment is not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gwOrder})
	}
}

// verifyPayment 验签通过后以 Razorpay 模式结算购物车；
// 验签失败在任何落库之前拦下（无订单、无扣库存）。
func verifyPayment(engine *settlement.Engine, gw *payment.Razorpay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BuyerID           uint    `json:"buyer_id" binding:"required,min=1"`
			RazorpayOrderID   string  `json:"razorpay_order_id" binding:"required"`
			RazorpayPaymentID string  `json:"razorpay_payment_id" binding:"required"`
			RazorpaySignature string  `json:"razorpay_signature" binding:"required"`
			ShippingAddress   string  `json:"shipping_address" binding:"required"`
			DistanceKm        float64 `json:"distance_km"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if err := gw.Verify(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "payment verification failed"})
			return
		}
		order, err := engine.Settle(c.Request.Context(), settlement.SettleInput{
			BuyerID:         req.BuyerID,
			PaymentMode:     model.PaymentRazorpay,
			ShippingAddress: req.ShippingAddress,
			DistanceKm:      req.DistanceKm,
		})
		if err != nil {
			settlementError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

func listOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := queryUint(c, "buyer_id")
		if !ok {
			return
		}
		var orders []model.Order
		if err := db.Preload("Items").Where("buyer_id = ?", buyerID).
			Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": orders})
	}
}

func viewTimeline(svc *timeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		entries, err := svc.View(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, timeline.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": entries})
	}
}

func adminListOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []model.Order
		q := db.Preload("Items").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if err := q.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": orders})
	}
}

func updateOrderStatus(svc *timeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		err := svc.SetStatus(c.Request.Context(), id, model.OrderStatus(req.Status))
		switch {
		case errors.Is(err, timeline.ErrUnknownStatus):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid status provided"})
		case errors.Is(err, timeline.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "status updated"})
		}
	}
}

// assignDelivery 指派配送员（可重复指派覆盖）。
func assignDelivery(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		var req struct {
			DeliveryPersonID uint `json:"delivery_person_id" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		res := db.Model(&model.Order{}).Where("id = ?", id).
			Update("delivery_person_id", req.DeliveryPersonID)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": res.Error.Error()})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "assigned"})
	}
}

func addNote(svc *timeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		var req struct {
			AuthorID uint   `json:"author_id" binding:"required,min=1"`
			Text     string `json:"text" binding:"required"`
			IsPublic bool   `json:"is_public"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		note, err := svc.AddNote(c.Request.Context(), id, req.AuthorID, req.Text, req.IsPublic)
		switch {
		case errors.Is(err, timeline.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
		case errors.Is(err, timeline.ErrEmptyNote):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "note text is empty"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": note})
		}
	}
}

func editNote(svc *timeline.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		err := svc.UpdateNote(c.Request.Context(), id, req.Text)
		switch {
		case errors.Is(err, timeline.ErrNoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "note not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "note updated"})
		}
	}
}

func pendingBalance(r *payout.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := paramUint(c, "seller_id")
		if !ok {
			return
		}
		b, err := r.PendingBalance(c.Request.Context(), sellerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": b})
	}
}

func processPayout(r *payout.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := paramUint(c, "seller_id")
		if !ok {
			return
		}
		p, err := r.Process(c.Request.Context(), sellerID)
		switch {
		case errors.Is(err, payout.ErrNothingToPay):
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "no unpaid eligible items"})
		case errors.Is(err, payout.ErrPayoutInProgress):
			c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "payout already in progress"})
		case errors.Is(err, payout.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "payout conflict, retry"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
		}
	}
}

func getSettings(st *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := st.All()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": all})
	}
}

func putSettings(st *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req map[string]string
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		for k, v := range req {
			if err := st.Put(k, v); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "settings updated"})
	}
}

func listFeedback(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.AllFeedback(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": entries})
	}
}

func dashboard(svc *stats.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Dashboard(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": sum})
	}
}

func chartData(svc *stats.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 日期缺省 / 非法时回退最近 7 天
		end, err := time.Parse("2006-01-02", c.Query("end_date"))
		if err != nil {
			end = time.Now()
		}
		start, err := time.Parse("2006-01-02", c.Query("start_date"))
		if err != nil {
			start = end.AddDate(0, 0, -6)
		}
		chart, err := svc.DailyChart(c.Request.Context(), start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": chart})
	}
}

func removeUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUint(c, "id")
		if !ok {
			return
		}
		err := svc.RemoveUser(c.Request.Context(), id)
		switch {
		case errors.Is(err, account.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "user not found"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "user removed"})
		}
	}
}

func lowStock(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := 5
		if v := c.Query("threshold"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid threshold"})
				return
			}
			threshold = n
		}
		var list []model.Product
		if err := db.Where("quantity <= ?", threshold).Order("quantity").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// chargeFor 按当前参数与距离报价算买家应付运费（网关预创建用）。
func chargeFor(st *settings.Store, subtotal, distanceKm float64) float64 {
	threshold := st.Float(settings.KeyFreeShippingThreshold, settings.DefaultFreeShippingThreshold)
	q := pricing.Quote(distanceKm)
	return pricing.Charge(subtotal, threshold, q.Fee)
}

func settlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settlement.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "cart is empty"})
	case errors.Is(err, settlement.ErrMissingAddress):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "shipping address is required"})
	case errors.Is(err, settlement.ErrInvalidPayment):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid payment mode"})
	case errors.Is(err, settlement.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid quantity"})
	case errors.Is(err, settlement.ErrInsufficientStock):
		// 提交时复核失败：提示用户按最新库存调整购物车后重试
		c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
	}
}

func cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "product not found"})
	case errors.Is(err, cart.ErrOutOfStock):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "not enough stock"})
	case errors.Is(err, cart.ErrNotInCart):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "item not in cart"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
	}
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": name + " is required"})
		return 0, false
	}
	return uint(v), true
}
