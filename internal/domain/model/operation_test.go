package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("status_change", "shipped", "")
	require.NoError(t, err)
	require.Equal(t, StatusChange{Status: OrderStatusShipped}, op)
	require.Equal(t, OperationStatusChange, op.Type())

	op, err = ParseOperation("delete", "", "")
	require.NoError(t, err)
	require.Equal(t, Delete{}, op)

	op, err = ParseOperation("generate_document", "", "delivery_slip")
	require.NoError(t, err)
	require.Equal(t, GenerateDocument{Kind: DocumentDeliverySlip}, op)

	_, err = ParseOperation("status_change", "nope", "")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseOperation("generate_document", "", "receipt")
	require.ErrorIs(t, err, ErrInvalidDocumentKind)

	_, err = ParseOperation("archive", "", "")
	require.ErrorIs(t, err, ErrUnknownOperation)
}

func TestChangeEvent_Validate(t *testing.T) {
	require.NoError(t, ChangeEvent{Event: ChangeInsert, Table: TableOrders}.Validate())
	require.NoError(t, ChangeEvent{Event: ChangeDelete, Table: TableOrderItems}.Validate())
	require.ErrorIs(t, ChangeEvent{Event: "truncate", Table: TableOrders}.Validate(), ErrUnknownChangeEvent)
	require.ErrorIs(t, ChangeEvent{Event: ChangeUpdate, Table: "products"}.Validate(), ErrUnknownChangeEvent)
}

func TestOrderView_CloneIsIndependent(t *testing.T) {
	notes := "n"
	v := OrderView{
		Order: Order{
			OrderNumber: "ORD-1",
			Notes:       &notes,
			Address:     &Address{FullName: "A"},
			Items:       []OrderItem{{ProductName: "p"}},
		},
		CustomerName: "A",
	}
	c := v.Clone()
	c.Address.FullName = "B"
	c.Items[0].ProductName = "q"

	require.Equal(t, "A", v.Address.FullName)
	require.Equal(t, "p", v.Items[0].ProductName)
}
