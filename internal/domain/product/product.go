package product

import "time"

type Image struct {
	URL string `json:"url" binding:"required,uri"`
	Alt string `json:"alt,omitempty"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Images      []Image   `json:"images"`
	CategoryID  string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,min=3,max=255"`
	Description string   `json:"description" binding:"required,min=10"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Stock       *int     `json:"stock" binding:"required,gte=0"`
	Images      []Image  `json:"images" binding:"required,min=1,dive"`
	Category    string   `json:"category" binding:"required"`
}

type DeleteProductRequest struct {
	ID string `json:"id" binding:"required"`
}
