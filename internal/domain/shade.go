package domain

// ShadeInfo is the canonical record for a normalized shade name
type ShadeInfo struct {
	ShadeID   string    `json:"shade_id"`
	RawName   string    `json:"raw_name,omitempty"`
	Undertone Undertone `json:"undertone,omitempty"`
	Depth     Depth     `json:"depth,omitempty"`
	Finish    string    `json:"finish,omitempty"`
	Hex       string    `json:"hex,omitempty"`
}
