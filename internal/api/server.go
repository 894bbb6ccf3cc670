package api

import "github.com/RoyceAzure/lab/orderadmin/internal/api/handler"

type Server struct {
	OrderHandler *handler.OrderHandler
}

func NewServer(orderHandler *handler.OrderHandler) *Server {
	if orderHandler == nil {
		panic("orderHandler cannot be nil")
	}
	return &Server{OrderHandler: orderHandler}
}
