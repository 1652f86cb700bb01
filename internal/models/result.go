package models

// SearchResult is a single retrieval hit. Distance is squared Euclidean; lower is closer.
type SearchResult struct {
	Record   *Record `json:"record"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
