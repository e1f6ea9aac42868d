// Package repository хранилища журнала оформлений: postgres и кэш в памяти.
package repository

import (
	"context"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// IDBRepository интерфейс БД репозитория журнала
type IDBRepository interface {
	Save(ctx context.Context, ev *model.CheckoutEvent) error
	GetByID(ctx context.Context, id string) (*model.CheckoutEvent, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.CheckoutEvent, error)
	GetRecent(ctx context.Context, limit int) ([]*model.CheckoutEvent, error)
}

// ICacheRepository интерфейс кэша журнала
type ICacheRepository interface {
	Save(ctx context.Context, ev *model.CheckoutEvent) error
	GetByID(ctx context.Context, id string) (*model.CheckoutEvent, error)
}
