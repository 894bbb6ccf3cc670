package service

import (
	"errors"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/renderer"
	"github.com/RoyceAzure/lab/orderadmin/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

var (
	ErrStoreQuery        = errors.New("order store query failed")
	ErrLineItemDelete    = errors.New("line item delete failed, orders were not deleted")
	ErrOrderDelete       = errors.New("order delete failed")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrAlreadyRunning    = errors.New("service is already running")
	ErrNotRunning        = errors.New("service is not running")

	// 下層 package 的 sentinel，集中在這裡讓呼叫端只依賴 service
	ErrOrderNotFound    = db.ErrOrderNotFound
	ErrPartnerNotFound  = db.ErrPartnerNotFound
	ErrRender           = renderer.ErrRender
	ErrEmptyDocument    = renderer.ErrEmptyDocument
	ErrInvalidStatus    = model.ErrInvalidStatus
	ErrUnknownOperation = model.ErrUnknownOperation
)

func nopIfNil(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return logger
}
