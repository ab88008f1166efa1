// internal/models/restaurant.go
package models

type RestaurantContact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

type RestaurantLocation struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// RestaurantRecord is stored keyed by Name; at most one record per name.
type RestaurantRecord struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Photo    *string             `json:"photo"`
	Contact  RestaurantContact   `json:"contact"`
	Location *RestaurantLocation `json:"location"`
}
