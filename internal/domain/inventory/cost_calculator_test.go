package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/erp-ledger/internal/domain/inventory"
)

func TestWeightedAverageCost_PrimeraEntradaTomaCostoDeEntrada(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, decimal.NewFromInt(10), decimal.RequireFromString("2.50"))
	assert.True(t, got.Equal(decimal.RequireFromString("2.5")), "got %s", got)
}

func TestWeightedAverageCost_Pondera(t *testing.T) {
	// 10 @ 2.00 + 30 @ 3.00 = 110 / 40 = 2.75
	got := inventory.WeightedAverageCost(decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.NewFromInt(30), decimal.NewFromInt(3))
	assert.True(t, got.Equal(decimal.RequireFromString("2.75")), "got %s", got)
}

func TestWeightedAverageCost_SinCantidadDevuelveCero(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(7))
	assert.True(t, got.IsZero())
}
