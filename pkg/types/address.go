package types

// Address is the snapshot stored on an order for shipping/billing. It is kept
// as a jsonb blob; the engine never joins it back to a directory record.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}
