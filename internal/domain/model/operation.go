package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperation    = errors.New("unknown bulk operation")
	ErrInvalidDocumentKind = errors.New("invalid document kind")
)

type OperationType string

const (
	OperationStatusChange     OperationType = "status_change"
	OperationDelete           OperationType = "delete"
	OperationGenerateDocument OperationType = "generate_document"
)

// Operation 批次操作，只有本 package 內的型別能實作
type Operation interface {
	Type() OperationType
	sealed()
}

type StatusChange struct {
	Status OrderStatus
}

func (StatusChange) Type() OperationType { return OperationStatusChange }
func (StatusChange) sealed()             {}

type Delete struct{}

func (Delete) Type() OperationType { return OperationDelete }
func (Delete) sealed()             {}

type GenerateDocument struct {
	Kind DocumentKind
}

func (GenerateDocument) Type() OperationType { return OperationGenerateDocument }
func (GenerateDocument) sealed()             {}

type DocumentKind string

const (
	DocumentInvoice      DocumentKind = "invoice"
	DocumentDeliverySlip DocumentKind = "delivery_slip"
)

func ParseDocumentKind(v string) (DocumentKind, error) {
	switch k := DocumentKind(v); k {
	case DocumentInvoice, DocumentDeliverySlip:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDocumentKind, v)
	}
}

// ParseOperation 由 API 傳入的字串組出批次操作
func ParseOperation(opType, status, kind string) (Operation, error) {
	switch OperationType(opType) {
	case OperationStatusChange:
		s, err := ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		return StatusChange{Status: s}, nil
	case OperationDelete:
		return Delete{}, nil
	case OperationGenerateDocument:
		k, err := ParseDocumentKind(kind)
		if err != nil {
			return nil, err
		}
		return GenerateDocument{Kind: k}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, opType)
	}
}
