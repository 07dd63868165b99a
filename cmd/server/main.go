package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"agri_market/internal/account"
	"agri_market/internal/cart"
	"agri_market/internal/config"
	"agri_market/internal/model"
	"agri_market/internal/notify"
	"agri_market/internal/payment"
	"agri_market/internal/payout"
	"agri_market/internal/queue"
	"agri_market/internal/review"
	"agri_market/internal/router"
	"agri_market/internal/settings"
	"agri_market/internal/stats"
	"agri_market/internal/settlement"
	"agri_market/internal/timeline"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 1. 连接 SQLite，自动建表并写入默认站点参数
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Redis：连不上就降级（限流放行、通知走日志、派发锁跳过）
	rdb := connectRedis(ctx, cfg)

	var notifier notify.Notifier = notify.LogNotifier{}
	if rdb != nil {
		notifier = notify.NewOutboxNotifier(rdb, cfg.NotifyEventStream)

		// 3. outbox -> Kafka 中继 + 通知消费者
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		relay := queue.NewRelay(rdb, producer, cfg.NotifyEventStream, cfg.NotifyEventGroup, cfg.NotifyEventConsumer)
		go relay.Run(ctx)

		consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, queue.LogSender{})
		defer consumer.Close()
		go consumer.Run(ctx)
	}

	st := settings.NewStore(db)
	deps := router.Deps{
		DB:       db,
		RDB:      rdb,
		Cart:     cart.NewService(db),
		Engine:   settlement.NewEngine(db, st, notifier),
		Timeline: timeline.NewService(db, notifier),
		Payout:   payout.NewReconciler(db, rdb),
		Settings: st,
		Gateway:  payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		Review:   review.NewService(db),
		Stats:    stats.NewService(db),
		Account:  account.NewService(db),
		Cfg:      cfg,
	}

	r := gin.Default()
	router.Setup(r, deps)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}

func connectRedis(ctx context.Context, cfg config.AppConfig) *rd.Client {
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable, running degraded: %v", err)
		return nil
	}
	return rdb
}
