package model

import "time"

// Document 渲染服務回傳的可列印文件，HTML 原封不動轉交
type Document struct {
	OrderID    string       `json:"order_id"`
	Kind       DocumentKind `json:"kind"`
	HTML       string       `json:"-"`
	RenderedAt time.Time    `json:"rendered_at"`
}
