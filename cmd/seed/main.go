package main

import (
	"log"

	"agri_market/internal/config"
	"agri_market/internal/model"
	"agri_market/internal/settings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// 写入演示数据：两个卖家、一个买家、一个管理员，以及若干农产品。
// 已有用户时直接跳过，方便反复启动。
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	if err := settings.SeedDefaults(db); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	var n int64
	if err := db.Model(&model.User{}).Count(&n).Error; err != nil {
		log.Fatalf("count users: %v", err)
	}
	if n > 0 {
		log.Printf("users already present (%d), skip seeding", n)
		return
	}

	users := []model.User{
		{Name: "Ramesh Farms", Email: "ramesh@example.com", Role: model.RoleSeller, Phone: "+911234500001"},
		{Name: "Green Valley", Email: "valley@example.com", Role: model.RoleSeller, Phone: "+911234500002"},
		{Name: "Anita", Email: "anita@example.com", Role: model.RoleBuyer, Phone: "+911234500003"},
		{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin},
	}
	if err := db.Create(&users).Error; err != nil {
		log.Fatalf("seed users: %v", err)
	}

	products := []model.Product{
		{Name: "Tomatoes", Category: "vegetables", Price: 32, Quantity: 120, Unit: "kg", SellerID: users[0].ID},
		{Name: "Onions", Category: "vegetables", Price: 28, Quantity: 200, Unit: "kg", SellerID: users[0].ID},
		{Name: "Alphonso Mangoes", Category: "fruits", Price: 450, Quantity: 40, Unit: "dozen", SellerID: users[1].ID},
		{Name: "Basmati Rice", Category: "grains", Price: 95, Quantity: 500, Unit: "kg", SellerID: users[1].ID},
		{Name: "Raw Honey", Category: "other", Price: 380, Quantity: 25, Unit: "jar", SellerID: users[1].ID},
	}
	if err := db.Create(&products).Error; err != nil {
		log.Fatalf("seed products: %v", err)
	}
	log.Printf("seeded %d users, %d products", len(users), len(products))
}
