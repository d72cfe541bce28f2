package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/model"
	mysqlClient "userhub/internal/platform/mysql"
	rabbitmqClient "userhub/internal/platform/rabbitmq"
	redisClient "userhub/internal/platform/redis"
	"userhub/internal/repository"
	"userhub/internal/worker"
)

// App holds the process-lifetime resources. MySQL is mandatory; Redis and
// RabbitMQ are optional and their fields stay nil when disabled.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	UserCache   *cache.UserCache
	Publisher   *rabbitmqClient.EventPublisher
	AuditWorker *worker.AuditPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.MySQL.MaxIdleConns, cfg.MySQL.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.AuditEvent{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		DB:        db,
		StartedAt: time.Now(),
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.Redis = redisCli
		app.UserCache = cache.NewUserCache(redisCli, time.Duration(cfg.Redis.UserTTLSeconds)*time.Second)
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		app.MQConn = mqConn
		app.Publisher = rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.AccountEventQueue)

		auditRepo := repository.NewAuditEventRepository(db)
		app.AuditWorker = worker.NewAuditPersistWorker(mqConn, auditRepo, cfg.RabbitMQ.AccountEventQueue)
		if err := app.AuditWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start audit worker failed: %w", err)
		}
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
