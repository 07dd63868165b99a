package model

import "time"

// OrderStatus 订单状态：闭集，无子状态。
// 转移不做校验（运营可能需要人工纠错），任何集合内取值均可写入；
// 每次转移都会追加一条不可变的 OrderStatusHistory。
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
	StatusCompleted OrderStatus = "Completed"
)

// Valid 仅判断取值是否在闭集内，不约束先后顺序。
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// SettlementEligible Delivered / Completed 两个状态对卖家分账等价。
func (s OrderStatus) SettlementEligible() bool {
	return s == StatusDelivered || s == StatusCompleted
}

// PaymentMode 支付方式
type PaymentMode string

const (
	PaymentCOD      PaymentMode = "COD"
	PaymentUPI      PaymentMode = "UPI"
	PaymentRazorpay PaymentMode = "Razorpay"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentRazorpay:
		return true
	}
	return false
}

// Order 结算生成的订单。
// DeliveryFee / DeliveryCost 是下单瞬间的报价快照，此后即使后台改价也不回算；
// fee - cost 可能为负（满额免运费时平台自担配送成本）。
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BuyerID         uint        `gorm:"not null;index" json:"buyer_id"`
	TotalAmount     float64     `gorm:"not null" json:"total_amount"` // 商品小计 + DeliveryFee
	PaymentMode     PaymentMode `gorm:"size:50;not null" json:"payment_mode"`
	ShippingAddress string      `gorm:"type:text" json:"shipping_address"`
	Status          OrderStatus `gorm:"size:20;not null;default:Pending;index" json:"status"`
	DeliveryFee     float64     `gorm:"not null;default:0" json:"delivery_fee"`
	DeliveryCost    float64     `gorm:"not null;default:0" json:"delivery_cost"`
	// 可选的配送员指派
	DeliveryPersonID *uint `gorm:"index" json:"delivery_person_id,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行快照：名称、单价、佣金都在下单时冻结，
// 之后商品改名 / 改价 / 删除都不影响历史账目。
// ProductID 可空：商品被删除后悬空引用置 NULL。
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderID     uint    `gorm:"not null;index" json:"order_id"`
	ProductID   *uint   `gorm:"index" json:"product_id,omitempty"`
	SellerID    uint    `gorm:"not null;index" json:"seller_id"`
	ProductName string  `gorm:"size:128;not null" json:"product_name"`
	Price       float64 `gorm:"not null" json:"price"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	// CommissionAmount = Price*Quantity*当时费率；只在创建时写入，禁止任何回填路径。
	CommissionAmount float64 `gorm:"not null;default:0" json:"commission_amount"`
	IsPaidToSeller   bool    `gorm:"not null;default:false;index" json:"is_paid_to_seller"`
}

func (OrderItem) TableName() string { return "order_items" }

// Gross 行毛额。
func (i OrderItem) Gross() float64 { return i.Price * float64(i.Quantity) }
