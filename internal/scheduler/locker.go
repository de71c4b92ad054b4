package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Locker 基于MySQL advisory lock (GET_LOCK)的领导者选举。
// db为nil时进入单机模式，立即视为持锁。
// 仅在领导者选举goroutine中使用，不做并发保护。
type Locker struct {
	db       *sql.DB
	lockName string
	timeout  time.Duration
	logger   *zap.Logger
	locked   bool
}

func NewLocker(db *sql.DB, lockName string, timeout time.Duration, logger *zap.Logger) *Locker {
	return &Locker{
		db:       db,
		lockName: lockName,
		timeout:  timeout,
		logger:   logger,
	}
}

// queryFlag 执行返回单个0/1标志的锁函数，NULL视为错误
func (l *Locker) queryFlag(ctx context.Context, query string, args ...any) (int64, error) {
	var flag sql.NullInt64
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&flag); err != nil {
		return 0, err
	}
	if !flag.Valid {
		return 0, fmt.Errorf("lock function returned NULL")
	}
	return flag.Int64, nil
}

// TryLock 尝试获取锁，GET_LOCK返回1表示成功、0表示等待超时
func (l *Locker) TryLock(ctx context.Context) (bool, error) {
	if l.locked {
		return true, nil
	}
	if l.db == nil {
		l.locked = true
		return true, nil
	}

	flag, err := l.queryFlag(ctx, "SELECT GET_LOCK(?, ?)", l.lockName, int(l.timeout.Seconds()))
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if flag != 1 {
		return false, nil
	}

	l.locked = true
	l.logger.Info("acquired scheduler lock",
		zap.String("lock_name", l.lockName))
	return true, nil
}

// Unlock 释放锁，非持有者释放视为错误
func (l *Locker) Unlock(ctx context.Context) error {
	if !l.locked {
		return nil
	}
	if l.db == nil {
		l.locked = false
		return nil
	}

	flag, err := l.queryFlag(ctx, "SELECT RELEASE_LOCK(?)", l.lockName)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if flag != 1 {
		return fmt.Errorf("failed to release lock: not owner or lock does not exist")
	}

	l.locked = false
	l.logger.Info("released scheduler lock",
		zap.String("lock_name", l.lockName))
	return nil
}

func (l *Locker) IsLocked() bool {
	return l.locked
}

// Renew GET_LOCK是会话级锁，连接存活锁就持有。
// 这里检查连接与锁状态，失效时交还领导权。
func (l *Locker) Renew(ctx context.Context) error {
	if !l.locked {
		return fmt.Errorf("not holding lock")
	}
	if l.db == nil {
		return nil
	}

	if err := l.db.PingContext(ctx); err != nil {
		l.locked = false
		return fmt.Errorf("database connection lost: %w", err)
	}

	var holder sql.NullString
	if err := l.db.QueryRowContext(ctx, "SELECT IS_USED_LOCK(?)", l.lockName).Scan(&holder); err != nil {
		return fmt.Errorf("failed to check lock status: %w", err)
	}
	if !holder.Valid || holder.String == "" {
		l.locked = false
		return fmt.Errorf("lock is not held")
	}
	return nil
}
