package models

type MenuItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description"`
	Price       float64 `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string  `json:"category" gorm:"index"` // coffee, tea, bakery, dessert, food
	Available   bool    `json:"available" gorm:"not null"`
	ImageURL    string  `json:"image_url"`
}

type MenuCategory string

const (
	CategoryCoffee  MenuCategory = "coffee"
	CategoryTea     MenuCategory = "tea"
	CategoryBakery  MenuCategory = "bakery"
	CategoryDessert MenuCategory = "dessert"
	CategoryFood    MenuCategory = "food"
)
