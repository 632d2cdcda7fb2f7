package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"shift-production/internal/config"
)

// Storage mirrors the workbook layout in MySQL tables: machine_master,
// item_master, doers, supervisors and production_rows.
type Storage struct {
	db *sql.DB
}

func DSN(cfg config.Storage) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	c.DBName = cfg.DBName
	c.ParseTime = true
	return c.FormatDSN()
}

func New(cfg config.Storage) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
