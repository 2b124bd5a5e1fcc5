package models

// OrderItem is one line of an order. Price is a snapshot taken at checkout
// and does not follow later menu price changes.
type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;index"`
	MenuItemID uint      `json:"menu_item_id" gorm:"not null"`
	MenuItem   *MenuItem `json:"menu_item,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Price      float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Notes      string    `json:"notes" gorm:"type:text"`
}

// Subtotal returns price times quantity.
func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
