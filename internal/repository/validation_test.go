package repository

import (
	"testing"

	"farm2city/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateRule(t *testing.T) {
	valid := func() *models.AutoReorderRule {
		return &models.AutoReorderRule{
			ShopkeeperID:    uuid.New(),
			ProductID:       uuid.New(),
			MinStock:        10,
			ReorderQuantity: 50,
			Frequency:       models.ReorderWeekly,
			Enabled:         true,
		}
	}

	assert.NoError(t, validateRule(valid()))

	zeroMin := valid()
	zeroMin.MinStock = 0
	assert.NoError(t, validateRule(zeroMin), "min_stock of zero is a valid threshold")

	tests := []struct {
		name   string
		mutate func(*models.AutoReorderRule)
	}{
		{"missing shopkeeper", func(r *models.AutoReorderRule) { r.ShopkeeperID = uuid.Nil }},
		{"missing product", func(r *models.AutoReorderRule) { r.ProductID = uuid.Nil }},
		{"negative min_stock", func(r *models.AutoReorderRule) { r.MinStock = -1 }},
		{"zero reorder_quantity", func(r *models.AutoReorderRule) { r.ReorderQuantity = 0 }},
		{"negative reorder_quantity", func(r *models.AutoReorderRule) { r.ReorderQuantity = -5 }},
		{"unknown frequency", func(r *models.AutoReorderRule) { r.Frequency = "hourly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := valid()
			tt.mutate(rule)
			assert.ErrorIs(t, validateRule(rule), ErrInvalidRule)
		})
	}

	assert.ErrorIs(t, validateRule(nil), ErrInvalidRule)
}

func TestValidateProduct(t *testing.T) {
	valid := func() *models.Product {
		return &models.Product{
			FarmerID:     uuid.New(),
			Name:         "Tomatoes",
			Price:        decimal.RequireFromString("15.5"),
			Quantity:     100,
			Availability: true,
		}
	}

	assert.NoError(t, validateProduct(valid()))

	tests := []struct {
		name   string
		mutate func(*models.Product)
	}{
		{"missing farmer", func(p *models.Product) { p.FarmerID = uuid.Nil }},
		{"empty name", func(p *models.Product) { p.Name = "" }},
		{"zero price", func(p *models.Product) { p.Price = decimal.Zero }},
		{"negative price", func(p *models.Product) { p.Price = decimal.NewFromInt(-1) }},
		{"negative quantity", func(p *models.Product) { p.Quantity = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := valid()
			tt.mutate(product)
			assert.ErrorIs(t, validateProduct(product), ErrInvalidInput)
		})
	}

	assert.ErrorIs(t, validateProduct(nil), ErrInvalidInput)
}
