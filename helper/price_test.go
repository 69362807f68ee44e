package helper

import (
	"testing"

	"ertib_delivery/model"

	"github.com/stretchr/testify/assert"
)

func TestCalcUnitPrice(t *testing.T) {
	tests := []struct {
		name  string
		input model.OrderItemInput
		want  float64
	}{
		{name: "normal_plain", input: model.OrderItemInput{ErtibType: "normal"}, want: 110},
		{name: "special_plain", input: model.OrderItemInput{ErtibType: "special"}, want: 135},
		{name: "normal_extra_ketchup", input: model.OrderItemInput{ErtibType: "normal", ExtraKetchup: true}, want: 120},
		{name: "special_extra_felafil", input: model.OrderItemInput{ErtibType: "special", ExtraFelafil: true}, want: 150},
		{name: "everything", input: model.OrderItemInput{ErtibType: "special", ExtraKetchup: true, ExtraFelafil: true}, want: 160},
		{name: "empty_type_is_normal", input: model.OrderItemInput{}, want: 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalcUnitPrice(tt.input))
		})
	}
}

func TestBuildOrderItemsIgnoresClientPrice(t *testing.T) {
	// Client gửi unitPrice 1 cho món special giá server 135
	items, total := BuildOrderItems([]model.OrderItemInput{
		{ErtibType: "special", UnitPrice: 1},
	})

	assert.Len(t, items, 1)
	assert.Equal(t, float64(135), items[0].UnitPrice)
	assert.Equal(t, float64(135), items[0].LineTotal)
	assert.Equal(t, float64(135), total)
}

func TestBuildOrderItemsDefaults(t *testing.T) {
	items, total := BuildOrderItems([]model.OrderItemInput{
		{ErtibType: "normal", Quantity: 0},
		{ErtibType: "special", ExtraKetchup: true, Quantity: 2},
	})

	assert.Len(t, items, 2)
	// Quantity mặc định 1, ketchup và spices mặc định có
	assert.Equal(t, 1, items[0].Quantity)
	assert.True(t, items[0].Ketchup)
	assert.True(t, items[0].Spices)
	assert.Equal(t, float64(110), items[0].LineTotal)

	assert.Equal(t, float64(145), items[1].UnitPrice)
	assert.Equal(t, float64(290), items[1].LineTotal)
	assert.Equal(t, float64(400), total)
}
