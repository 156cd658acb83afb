package models

type SchemeMeta struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     int    `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`
}

type NAVPoint struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// SchemeData mirrors the mfapi.in scheme payload. Values are passed through
// as received.
type SchemeData struct {
	Meta   SchemeMeta `json:"meta"`
	Data   []NAVPoint `json:"data"`
	Status string     `json:"status,omitempty"`
}
