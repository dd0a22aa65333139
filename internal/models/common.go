package models

// Pagination contains paging metadata returned in list responses.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// DateLayout is the wire format for all calendar dates handled by the API.
const DateLayout = "2006-01-02"
