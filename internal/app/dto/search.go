package dto

type RoomSearchItem struct {
	ID              string           `json:"id"`
	PropertyID      string           `json:"property_id"`
	TypeID          string           `json:"type_id,omitempty"`
	TypeName        string           `json:"type_name,omitempty"`
	Name            string           `json:"name"`
	Capacity        int              `json:"capacity"`
	BasePrice       Money            `json:"base_price"`
	CalculatedPrice *Money           `json:"calculated_price,omitempty"`
	Rules           []AdjustmentRule `json:"rules"`
	FitsParty       bool             `json:"fits_party"`
}

type PropertySummary struct {
	PropertyID     string `json:"property_id"`
	RoomsAvailable int    `json:"rooms_available"`
	FromPrice      Money  `json:"from_price"`
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type RoomSearchResult struct {
	Items      []RoomSearchItem  `json:"items"`
	Properties []PropertySummary `json:"properties"`
	Meta       PageMeta          `json:"meta"`
}
