package chi

// ErrorCode is a machine-readable error category.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeIngestFailed     ErrorCode = "ingest_failed"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// genericErrorMessage is shown for any failure whose detail must not leak.
const genericErrorMessage = "Something went wrong! Please try again."

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PropertyResponse is one search hit.
type PropertyResponse struct {
	SaleDate                string  `json:"sale_date"`
	Address                 string  `json:"address"`
	County                  string  `json:"county"`
	Eircode                 *string `json:"eircode"`
	Price                   float64 `json:"price"`
	IsFullMarketPrice       bool    `json:"is_full_market_price"`
	VATExclusive            bool    `json:"vat_exclusive"`
	PropertySizeDescription *string `json:"property_size_description"`
	IsSecondHand            bool    `json:"is_second_hand"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	TotalNumDocuments    int                `json:"total_num_documents"`
	HasNextPage          bool               `json:"has_next_page"`
	NextPageNum          *int               `json:"next_page_num"`
	NumDocumentsReturned int                `json:"num_documents_returned"`
	Results              []PropertyResponse `json:"results"`
}

// DownloadResponse reports a completed ingestion run.
type DownloadResponse struct {
	DownloadURL      string  `json:"download_url"`
	NumRowsInserted  int     `json:"num_rows_inserted"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
