package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

// Tx 是挂在 context 上的数据库事务。
type Tx struct {
	tx     *gorm.DB
	done   bool
	logger *zap.Logger
}

// Commit 提交 context 中的事务；context 中没有事务时什么也不做。
func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok || tx == nil {
		return ctx, nil
	}
	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Commit()
}

// Rollback 回滚 context 中的事务。
func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok || tx == nil {
		return ctx, nil
	}
	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Rollback()
}

// FromContext 返回 context 中正在进行的事务，没有则返回 nil。
func FromContext(ctx context.Context) *gorm.DB {
	if tx, found := ctx.Value(transactionKey).(*Tx); found && tx != nil && !tx.done {
		return tx.tx
	}
	return nil
}

func newTransactionContext(ctx context.Context, db *gorm.DB, logger *zap.Logger) (context.Context, error) {
	// 已经处在事务中则复用
	if tx, found := ctx.Value(transactionKey).(*Tx); found && tx != nil {
		return ctx, nil
	}
	conn := db.Session(&gorm.Session{Context: ctx})
	tx, err := newTransaction(conn, logger)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, transactionKey, tx), nil
}

func newTransaction(db *gorm.DB, logger *zap.Logger) (*Tx, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	logger.Debug("transaction started")
	return &Tx{tx: tx, logger: logger}, nil
}

func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit().Error; err != nil {
		t.logger.Warn("transaction commit failed", zap.Error(err))
		return translate(err)
	}
	t.logger.Debug("transaction committed")
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback().Error; err != nil {
		return err
	}
	t.logger.Debug("transaction rolled back")
	return nil
}
