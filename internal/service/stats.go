package service

import "github.com/RoyceAzure/lab/orderadmin/internal/domain/model"

// OrderStats 列表上方的統計，依目前查詢結果計算
type OrderStats struct {
	Total    int                       `json:"total"`
	ByStatus map[model.OrderStatus]int `json:"by_status"`
	Flagged  int                       `json:"flagged"`
}

func ComputeStats(views []model.OrderView) OrderStats {
	stats := OrderStats{
		Total:    len(views),
		ByStatus: make(map[model.OrderStatus]int, len(model.AllOrderStatuses)),
	}
	for _, s := range model.AllOrderStatuses {
		stats.ByStatus[s] = 0
	}
	for _, v := range views {
		stats.ByStatus[v.Status]++
		if v.Risk.Flagged {
			stats.Flagged++
		}
	}
	return stats
}
