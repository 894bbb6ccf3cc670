package dto

import (
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
)

// FilterDTO from/to 接受 2006-01-02 或 RFC3339
type FilterDTO struct {
	Status string  `json:"status"`
	From   *string `json:"from,omitempty"`
	To     *string `json:"to,omitempty"`
	Search string  `json:"search"`
}

type FilterStateDTO struct {
	Status string     `json:"status"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Search string     `json:"search"`
}

// OrderListResponse 後台訂單列表畫面
type OrderListResponse struct {
	Filter      FilterStateDTO    `json:"filter"`
	Orders      []model.OrderView `json:"orders"`
	Selected    []string          `json:"selected"`
	Stale       bool              `json:"stale"`
	LastError   string            `json:"last_error,omitempty"`
	RefreshedAt *time.Time        `json:"refreshed_at,omitempty"`
}

type SetStatusDTO struct {
	Status string `json:"status"`
}

type SetDeliveryPartnerDTO struct {
	PartnerID *string `json:"partner_id"`
}

type SetTrackingNumberDTO struct {
	TrackingNumber string `json:"tracking_number"`
}

type SetNotesDTO struct {
	Notes string `json:"notes"`
}

type SelectionDTO struct {
	IDs []string `json:"ids"`
}

type SelectionResponse struct {
	IDs []string `json:"ids"`
}

// BulkDTO operation: status_change | delete | generate_document
type BulkDTO struct {
	Operation string `json:"operation"`
	Status    string `json:"status,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

type ItemFailureDTO struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BulkResultDTO struct {
	Operation    string           `json:"operation"`
	Total        int              `json:"total"`
	Succeeded    int              `json:"succeeded"`
	SucceededIDs []string         `json:"succeeded_ids"`
	Failed       []ItemFailureDTO `json:"failed"`
	BatchError   string           `json:"batch_error,omitempty"`
	Summary      string           `json:"summary"`
}

type PrintJobDTO struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Kind       string    `json:"kind"`
	RenderedAt time.Time `json:"rendered_at"`
}
