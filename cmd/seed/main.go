package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var date string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入默认服务, 2: 插入默认员工, 3: 插入随机顾客, 4: 插入随机预约, 5: 插入随机员工账户)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&date, "date", "", "随机预约的日期，格式为 YYYY-MM-DD，默认为今天")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	if (op == 3 || op == 4 || op == 5) && n <= 0 {
		slog.Error("请输入合法的记录数量")
		return
	}

	// 执行操作
	var cnt int
	switch op {
	case 0:
		slog.Error("未指定操作")
		return
	case 1:
		cnt, err = seed.SeedDefaultServices(repo)
	case 2:
		cnt, err = seed.SeedDefaultEmployees(repo)
	case 3:
		cnt, err = seed.SeedRandomCustomers(repo, n)
	case 4:
		day := domain.NewDay(time.Now())
		if date != "" {
			day, err = domain.ParseDay(date)
			if err != nil {
				slog.Error("日期格式错误", "date", date)
				return
			}
		}
		cnt, err = seed.SeedRandomAppointments(repo, day, n, cfg.Booking.SlotGranularity)
	case 5:
		cnt, err = seed.SeedRandomStaffUsers(repo, n, cfg.Seed.UserPassword, cfg.Seed.EmailDomain)
	default:
		slog.Error("指定的操作非法")
		return
	}

	if err != nil {
		slog.Error("插入数据失败", "op", op, "count", cnt, "error", err)
		return
	}
	slog.Info("插入数据成功", "op", op, "count", cnt)
}
