package places

// Upstream status values that count as success.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// PlaceSummary is one text-search hit.
type PlaceSummary struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// PlaceDetail is the fixed field selection returned by a detail lookup.
type PlaceDetail struct {
	Name                 string `json:"name"`
	FormattedAddress     string `json:"formatted_address"`
	FormattedPhoneNumber string `json:"formatted_phone_number,omitempty"`
	Website              string `json:"website,omitempty"`
}

type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

// PlaceResult is a full text-search result as used by the restaurant refresh.
type PlaceResult struct {
	PlaceID              string    `json:"place_id"`
	Name                 string    `json:"name"`
	FormattedAddress     string    `json:"formatted_address"`
	FormattedPhoneNumber string    `json:"formatted_phone_number,omitempty"`
	Website              string    `json:"website,omitempty"`
	Photos               []Photo   `json:"photos,omitempty"`
	Geometry             *Geometry `json:"geometry,omitempty"`
}

func (r PlaceResult) Summary() PlaceSummary {
	return PlaceSummary{PlaceID: r.PlaceID, Name: r.Name}
}

type textSearchResponse struct {
	Results       []PlaceResult `json:"results"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

type detailResponse struct {
	Result       PlaceDetail `json:"result"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
