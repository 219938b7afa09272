package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager 在 context 中传递事务，仓储层通过 conn 取用
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TxManagerImpl struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &TxManagerImpl{db: db}
}

// Transaction 已处于事务中时直接复用外层事务
func (s *TxManagerImpl) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn 返回 ctx 中的事务，没有则返回普通连接
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// InTx 判断 ctx 是否携带事务
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
