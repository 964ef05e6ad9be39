package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/taskmaster-dev/task-master/backend/internal/config"
	"github.com/taskmaster-dev/task-master/backend/internal/handler"
	"github.com/taskmaster-dev/task-master/backend/internal/mongostore"
	"github.com/taskmaster-dev/task-master/backend/internal/notify"
	"github.com/taskmaster-dev/task-master/backend/internal/repository"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
	"github.com/taskmaster-dev/task-master/backend/internal/session"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// store is what both persistence backends provide to the services.
type store interface {
	service.TaskStore
	service.UserStore
}

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return
	}

	/**********************************************
	 * persistence
	 **********************************************/
	var st store
	switch cfg.Database.Driver {
	case config.DriverMongoDB:
		client, err := mongostore.Connect(cfg)
		if err != nil {
			logger.Error("failed to connect to mongodb", "error", err)
			return
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		ms := mongostore.NewStore(cfg, client.Database(cfg.Mongo.Database))
		if err := ms.EnsureIndexes(); err != nil {
			logger.Error("failed to create indexes", "error", err)
			return
		}
		st = ms
	default:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			return
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open does not connect, the ping does
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("failed to connect to database", "error", err)
			return
		}

		repo := repository.NewRepository(cfg, dbpool)
		if err := repo.EnsureSchema(); err != nil {
			logger.Error("failed to apply schema", "error", err)
			return
		}
		st = repo
	}

	/**********************************************
	 * services
	 **********************************************/
	validate := service.NewValidator()
	tasks := service.NewTaskService(st, validate)
	users := service.NewUserService(st, validate)

	if err := users.EnsureAdmin(cfg.InitialAdmin.Username, cfg.InitialAdmin.Email, cfg.InitialAdmin.Password); err != nil {
		logger.Error("failed to create initial admin", "error", err)
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		return
	}
	defer ch.Close()

	if _, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logger.Error("failed to declare queue", "error", err)
		return
	}

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * handler
	 **********************************************/
	h, err := handler.NewHandler(
		cfg,
		validate,
		tasks,
		users,
		session.NewIssuer(cfg),
		session.NewDenylist(cfg, rdb),
		notify.NewPublisher(cfg, ch),
	)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * http server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
