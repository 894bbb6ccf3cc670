package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/orderadmin/internal/api/dto"
	"github.com/RoyceAzure/lab/orderadmin/internal/domain/model"
	"github.com/RoyceAzure/lab/orderadmin/internal/service"
	"github.com/RoyceAzure/lab/orderadmin/internal/view"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

// OrderHandler 後台操作人員的事件入口，所有畫面狀態都在 AdminView
type OrderHandler struct {
	view    *view.AdminView
	orders  service.IOrderService
	prints  *view.PrintQueue
	notices *view.NoticeBoard
}

func NewOrderHandler(adminView *view.AdminView, orders service.IOrderService, prints *view.PrintQueue, notices *view.NoticeBoard) *OrderHandler {
	if adminView == nil {
		panic("adminView cannot be nil")
	}
	if orders == nil {
		panic("orders cannot be nil")
	}
	if prints == nil {
		panic("prints cannot be nil")
	}
	if notices == nil {
		panic("notices cannot be nil")
	}
	return &OrderHandler{view: adminView, orders: orders, prints: prints, notices: notices}
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	SuccessJSON(w, toListResponse(h.view.Snapshot()), "")
}

func (h *OrderHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req dto.FilterDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	filter, err := parseFilter(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.view.SetFilter(r.Context(), filter); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, toListResponse(h.view.Snapshot()), "")
}

func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.view.ManualRefresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, toListResponse(h.view.Snapshot()), "")
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	SuccessJSON(w, h.view.Stats(), "")
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, service.ToView(*order), "")
}

func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.SetStatusDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.view.SetStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, nil, "status updated")
}

func (h *OrderHandler) SetDeliveryPartner(w http.ResponseWriter, r *http.Request) {
	var req dto.SetDeliveryPartnerDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.view.SetDeliveryPartner(r.Context(), chi.URLParam(r, "id"), req.PartnerID); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, nil, "delivery partner updated")
}

func (h *OrderHandler) SetTrackingNumber(w http.ResponseWriter, r *http.Request) {
	var req dto.SetTrackingNumberDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.view.SetTrackingNumber(r.Context(), chi.URLParam(r, "id"), req.TrackingNumber); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, nil, "tracking number updated")
}

func (h *OrderHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req dto.SetNotesDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.view.SetNotes(r.Context(), chi.URLParam(r, "id"), req.Notes); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, nil, "notes updated")
}

func (h *OrderHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	SuccessJSON(w, dto.SelectionResponse{IDs: h.view.Selected()}, "")
}

func (h *OrderHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectionDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.view.Select(req.IDs...)
	SuccessJSON(w, dto.SelectionResponse{IDs: h.view.Selected()}, "")
}

func (h *OrderHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectionDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.view.Deselect(req.IDs...)
	SuccessJSON(w, dto.SelectionResponse{IDs: h.view.Selected()}, "")
}

func (h *OrderHandler) SelectAllVisible(w http.ResponseWriter, r *http.Request) {
	h.view.SelectAllVisible()
	SuccessJSON(w, dto.SelectionResponse{IDs: h.view.Selected()}, "")
}

func (h *OrderHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.view.ClearSelection()
	SuccessJSON(w, dto.SelectionResponse{IDs: h.view.Selected()}, "")
}

// RunBulk 部分失敗仍回 200，失敗明細在 body
func (h *OrderHandler) RunBulk(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDTO
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	op, err := model.ParseOperation(req.Operation, req.Status, req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.view.RunBulk(r.Context(), op)
	if err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, toBulkResult(result), result.Summary())
}

func (h *OrderHandler) ListDeliveryPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.orders.ListDeliveryPartners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, partners, "")
}

func (h *OrderHandler) ListPrintJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.prints.List()
	res := make([]dto.PrintJobDTO, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, dto.PrintJobDTO{
			ID:         j.ID,
			OrderID:    j.Document.OrderID,
			Kind:       string(j.Document.Kind),
			RenderedAt: j.Document.RenderedAt,
		})
	}
	SuccessJSON(w, res, "")
}

// GetPrintJob 直接回傳渲染服務給的 HTML
func (h *OrderHandler) GetPrintJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.prints.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(job.Document.HTML))
}

func (h *OrderHandler) DeletePrintJob(w http.ResponseWriter, r *http.Request) {
	if err := h.prints.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	SuccessJSON(w, nil, "print job removed")
}

func (h *OrderHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	SuccessJSON(w, h.notices.List(), "")
}

func (h *OrderHandler) ClearNotices(w http.ResponseWriter, r *http.Request) {
	h.notices.Clear()
	SuccessJSON(w, nil, "notices cleared")
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrBadRequest, err)
	}
	return nil
}

func parseFilter(req dto.FilterDTO) (model.OrderFilter, error) {
	status, err := model.ParseStatusFilter(req.Status)
	if err != nil {
		return model.OrderFilter{}, err
	}
	f := model.OrderFilter{Status: status, Search: req.Search}
	if f.From, err = parseDate(req.From); err != nil {
		return model.OrderFilter{}, err
	}
	if f.To, err = parseDate(req.To); err != nil {
		return model.OrderFilter{}, err
	}
	return f, nil
}

// parseDate 純日期以伺服器時區解讀
func parseDate(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, *v, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrBadRequest, *v)
	}
	return &t, nil
}

func toListResponse(s view.Snapshot) dto.OrderListResponse {
	res := dto.OrderListResponse{
		Filter: dto.FilterStateDTO{
			Status: s.Filter.Status.String(),
			From:   s.Filter.From,
			To:     s.Filter.To,
			Search: s.Filter.Search,
		},
		Orders:   s.Orders,
		Selected: s.Selected,
		Stale:    s.Stale,
	}
	if s.LastError != nil {
		res.LastError = s.LastError.Error()
	}
	if !s.RefreshedAt.IsZero() {
		at := s.RefreshedAt
		res.RefreshedAt = &at
	}
	return res
}

func toBulkResult(r service.BulkResult) dto.BulkResultDTO {
	res := dto.BulkResultDTO{
		Operation:    string(r.Operation),
		Total:        r.Total,
		Succeeded:    r.Succeeded,
		SucceededIDs: r.SucceededIDs,
		Failed:       make([]dto.ItemFailureDTO, 0, len(r.Failed)),
		Summary:      r.Summary(),
	}
	if res.SucceededIDs == nil {
		res.SucceededIDs = []string{}
	}
	for _, f := range r.Failed {
		res.Failed = append(res.Failed, dto.ItemFailureDTO{ID: f.ID, Error: f.Err.Error()})
	}
	if r.BatchErr != nil {
		res.BatchError = r.BatchErr.Error()
	}
	return res
}
