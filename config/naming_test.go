package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingConventionToCQLTable(t *testing.T) {
	nc := NewDefaultNaming()
	assert.Equal(t, "users", nc.ToCQLTable("users"))
	assert.Equal(t, "purchase_orders", nc.ToCQLTable("purchaseOrders"))
	assert.Equal(t, "purchase_orders", nc.ToCQLTable("PurchaseOrders"))
	assert.Equal(t, "purchase_orders", nc.ToCQLTable("purchase_orders"))
}

func TestNamingConventionToCQLIndex(t *testing.T) {
	nc := NewDefaultNaming()
	assert.Equal(t, "users_exist_keys", nc.ToCQLIndex("users", "exist_keys"))
	assert.Equal(t, "purchase_orders_query_text_values", nc.ToCQLIndex("purchaseOrders", "query_text_values"))
}
