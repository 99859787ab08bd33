package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
	"github.com/sysu-ecnc-dev/nail-salon/backend/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op string
	var version int

	flag.StringVar(&op, "op", "up", "要执行的操作 (up, down, force)")
	flag.IntVar(&version, "version", -1, "force 时要设置的版本号")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		os.Exit(1)
	}

	dbDriver, err := postgres.WithInstance(dbpool, &postgres.Config{})
	if err != nil {
		logger.Error("无法创建数据库驱动", "error", err)
		os.Exit(1)
	}

	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Error("无法读取迁移文件", "error", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logger.Error("无法创建 migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch op {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "force":
		if version < 0 {
			logger.Error("请指定合法的版本号")
			os.Exit(1)
		}
		err = m.Force(version)
	default:
		logger.Error("指定的操作非法", "op", op)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("迁移失败", "op", op, "error", err)
		os.Exit(1)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error("无法获取当前版本", "error", err)
		os.Exit(1)
	}
	logger.Info("迁移完成", "op", op, "version", current, "dirty", dirty)
}
