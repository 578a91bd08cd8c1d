// Package reference loads the lookup data (trucks, routes, staff, products) used by trip and POS workflows.
package reference

// Staff roles understood by the upstream /staff endpoint.
const (
	RoleDriver      = "driver"
	RoleSalesperson = "salesperson"
	RoleHelper      = "helper"
)

// Truck is a vehicle available for dispatch.
type Truck struct {
	ID            string  `json:"_id"`
	VehicleNumber string  `json:"vehicleNumber"`
	Model         string  `json:"model,omitempty"`
	Capacity      float64 `json:"capacity,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// Route is a named delivery route.
type Route struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	StartLocation string  `json:"startLocation,omitempty"`
	EndLocation   string  `json:"endLocation,omitempty"`
	DistanceKM    float64 `json:"distance,omitempty"`
}

// Staff is an employee that can be assigned to a trip.
type Staff struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// Product is the last-fetched copy of an upstream product. Stock is only
// ever changed upstream; the value here is a snapshot.
type Product struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	SubCategory   string  `json:"subCategory,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	CurrentStock  int     `json:"currentStock"`
	MinStock      int     `json:"minStock,omitempty"`
	MaxStock      int     `json:"maxStock,omitempty"`
	IsPerishable  bool    `json:"isPerishable,omitempty"`
	ExpiryDate    string  `json:"expiryDate,omitempty"`
	IsActive      bool    `json:"isActive"`
}

// Sellable reports whether the product can be put in a cart.
func (p Product) Sellable() bool {
	return p.IsActive && p.CurrentStock > 0
}

// LowStock reports whether stock fell to or below the configured minimum.
func (p Product) LowStock() bool {
	return p.MinStock > 0 && p.CurrentStock <= p.MinStock
}

// IndexProducts maps products by ID.
func IndexProducts(products []Product) map[string]Product {
	idx := make(map[string]Product, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}
