package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bank-spn/manus-pos/internal/domain"
)

func testProduct(id int64, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     domain.MultiLang{TH: "สินค้า", EN: "Product"},
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
}

func TestAdd_MergesSameProduct(t *testing.T) {
	l := NewLedger()
	p := testProduct(1, "25.00")

	l.Add(p, 2)
	l.Add(p, 3)

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Qty)
	assert.Equal(t, 5, l.TotalItemCount())
}

func TestAdd_IgnoresNonPositiveQuantity(t *testing.T) {
	l := NewLedger()
	p := testProduct(1, "10.00")

	l.Add(p, 0)
	l.Add(p, -4)

	assert.Empty(t, l.Lines())
	assert.Equal(t, 0, l.TotalItemCount())
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.AddOne(testProduct(3, "1.00"))
	l.AddOne(testProduct(1, "2.00"))
	l.AddOne(testProduct(2, "3.00"))
	l.AddOne(testProduct(1, "2.00"))

	lines := l.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, int64(3), lines[0].Product.ID)
	assert.Equal(t, int64(1), lines[1].Product.ID)
	assert.Equal(t, int64(2), lines[2].Product.ID)
	assert.Equal(t, 2, lines[1].Qty)
}

func TestRemove_AbsentProductIsNoOp(t *testing.T) {
	l := NewLedger()
	l.AddOne(testProduct(1, "10.00"))

	l.Remove(99)
	assert.Len(t, l.Lines(), 1)

	l.Remove(1)
	assert.Empty(t, l.Lines())
}

func TestSetQuantity_SetsExactValue(t *testing.T) {
	l := NewLedger()
	l.Add(testProduct(1, "10.00"), 4)

	l.SetQuantity(1, 2)

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Qty)
}

func TestSetQuantity_ZeroEquivalentToRemove(t *testing.T) {
	l := NewLedger()
	l.Add(testProduct(1, "10.00"), 4)
	l.AddOne(testProduct(2, "5.00"))

	l.SetQuantity(1, 0)

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Product.ID)

	l.SetQuantity(2, -1)
	assert.Empty(t, l.Lines())
}

func TestSetQuantity_AbsentProductIsNoOp(t *testing.T) {
	l := NewLedger()
	l.SetQuantity(42, 3)
	assert.Empty(t, l.Lines())
}

func TestClear_Idempotent(t *testing.T) {
	l := NewLedger()
	l.Add(testProduct(1, "10.00"), 2)

	l.Clear()
	assert.Empty(t, l.Lines())
	assert.Equal(t, 0, l.TotalItemCount())

	l.Clear()
	assert.Empty(t, l.Lines())
}

func TestSubtotal_UsesSnapshotPrices(t *testing.T) {
	l := NewLedger()
	p := testProduct(1, "25.50")
	l.Add(p, 2)

	// A later catalog price change must not affect the ledger.
	p.Price = decimal.RequireFromString("99.99")

	assert.True(t, l.Subtotal().Equal(decimal.RequireFromString("51.00")),
		"subtotal = %s", l.Subtotal())
}

func TestSubtotal_EmptyLedgerIsZero(t *testing.T) {
	l := NewLedger()
	assert.True(t, l.Subtotal().IsZero())
}

func TestLedgerInvariants_RandomOperationSequence(t *testing.T) {
	l := NewLedger()
	products := []domain.Product{
		testProduct(1, "10.00"),
		testProduct(2, "20.00"),
		testProduct(3, "30.00"),
	}

	ops := []func(){
		func() { l.Add(products[0], 2) },
		func() { l.Add(products[1], -1) },
		func() { l.SetQuantity(1, 0) },
		func() { l.AddOne(products[2]) },
		func() { l.Add(products[0], 1) },
		func() { l.SetQuantity(3, 7) },
		func() { l.Remove(2) },
		func() { l.Add(products[1], 3) },
		func() { l.SetQuantity(2, -5) },
	}

	for _, op := range ops {
		op()

		seen := map[int64]bool{}
		for _, line := range l.Lines() {
			assert.Greater(t, line.Qty, 0, "line with non-positive quantity")
			assert.False(t, seen[line.Product.ID], "duplicate line for product %d", line.Product.ID)
			seen[line.Product.ID] = true
		}
	}
}

func TestSnapshot_FreezesNameAndPrice(t *testing.T) {
	l := NewLedger()
	l.Add(testProduct(1, "25.00"), 2)
	l.AddOne(testProduct(2, "7.50"))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, int64(1), snap[0].ProductID)
	assert.Equal(t, 2, snap[0].Qty)
	assert.True(t, snap[0].Price.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "Product", snap[0].Name.EN)
}

func TestReplace_RestoresInvariants(t *testing.T) {
	l := NewLedger()
	p1 := testProduct(1, "10.00")

	l.Replace([]Line{
		{Product: p1, Qty: 2},
		{Product: testProduct(2, "5.00"), Qty: 0},
		{Product: p1, Qty: 3},
	})

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Qty)
}
