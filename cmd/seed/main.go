package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/config"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/mongostore"
	"github.com/taskmaster-dev/task-master/backend/internal/repository"
	"github.com/taskmaster-dev/task-master/backend/internal/seed"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
	"github.com/taskmaster-dev/task-master/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type store interface {
	service.TaskStore
	service.UserStore
}

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "operation to run (1: random users, 2: random tasks, 3: random assignments, 4: import tasks from CSV)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&file, "file", "", "CSV file for -op 4")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

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

	validate := service.NewValidator()
	tasks := service.NewTaskService(st, validate)
	users := service.NewUserService(st, validate)

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("-n must be positive")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			in := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if _, err := users.Register(in); err != nil {
				slog.Error("failed to insert user", slog.String("username", in.Username), slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("users inserted", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("-n must be positive")
			return
		}

		now := time.Now()
		cnt := 0
		for i := 0; i < n; i++ {
			if _, err := tasks.Create(utils.GenerateRandomTask(now)); err != nil {
				slog.Error("failed to insert task", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("tasks inserted", slog.Int("count", cnt))
	case 3:
		all, err := users.List()
		if err != nil {
			slog.Error("failed to list users", slog.String("error", err.Error()))
			return
		}
		userIDs := make([]string, 0, len(all))
		for _, u := range all {
			if u.Role == domain.RoleUser {
				userIDs = append(userIDs, u.ID)
			}
		}
		if len(userIDs) == 0 {
			slog.Error("no regular users to assign, run -op 1 first")
			return
		}

		admin := domain.Identity{Role: domain.RoleAdmin}
		list, err := tasks.FindWithFilters(admin, "", domain.TaskCriteria{})
		if err != nil {
			slog.Error("failed to list tasks", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, task := range list {
			if _, err := tasks.Assign(task.ID, utils.GenerateRandomSubset(userIDs)); err != nil {
				slog.Error("failed to assign task", slog.String("task", task.ID), slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("tasks assigned", slog.Int("count", cnt))
	case 4:
		if file == "" {
			slog.Error("-file is required for -op 4")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			slog.Error("failed to open file", slog.String("error", err.Error()))
			return
		}
		defer f.Close()

		cnt, err := seed.ImportTasks(f, tasks)
		if err != nil {
			slog.Error("import aborted", slog.Int("count", cnt), slog.String("error", err.Error()))
			return
		}

		slog.Info("tasks imported", slog.Int("count", cnt))
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}
