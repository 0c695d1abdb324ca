package govinfo

import (
	"errors"
	"fmt"
)

// BillRecord is the normalized shape every search result is mapped into.
// Fields unparsable from the source keep documented placeholders instead of
// failing the record.
type BillRecord struct {
	Title      string `json:"title"`
	Congress   string `json:"congress"`
	DateIssued string `json:"dateIssued"`
	PackageID  string `json:"packageId"`
	BillNumber string `json:"billNumber"`
	BillType   string `json:"billType"`
	Version    string `json:"version"`
	URL        string `json:"url"`
	Summary    string `json:"summary"`
}

// SearchResult is the normalized response of SearchBills.
type SearchResult struct {
	Count int          `json:"count"`
	Bills []BillRecord `json:"bills"`
}

// SearchBillsParams are the arguments of the search_bills tool.
type SearchBillsParams struct {
	Query               string `json:"query"`
	DateIssuedStartDate string `json:"dateIssuedStartDate,omitempty"`
	DateIssuedEndDate   string `json:"dateIssuedEndDate,omitempty"`
	PageSize            int    `json:"pageSize,omitempty"`
}

// PublishedParams are the arguments for the published-packages listing.
type PublishedParams struct {
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Collections []string `json:"collections"`
	PageSize    int      `json:"pageSize,omitempty"`
	Congress    string   `json:"congress,omitempty"`
	OffsetMark  string   `json:"offsetMark,omitempty"`
}

// LastModifiedParams are the arguments for the collection last-modified listing.
type LastModifiedParams struct {
	Collection string `json:"collection"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate,omitempty"`
	PageSize   int    `json:"pageSize,omitempty"`
	Congress   string `json:"congress,omitempty"`
	OffsetMark string `json:"offsetMark,omitempty"`
}

// PackageSummary is the normalized summary lookup result. A 404 upstream
// degrades to Available=false rather than an error.
type PackageSummary struct {
	Available bool           `json:"available"`
	Summary   map[string]any `json:"summary,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// ErrRequestTimeout marks an upstream call that exceeded its deadline,
// distinguishable from other upstream failures.
var ErrRequestTimeout = errors.New("govinfo request timed out")

// APIError is a non-2xx upstream response, wrapped with status and reason.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GovInfo API error: %d - %s", e.StatusCode, e.Status)
}

// ValidationError rejects tool arguments before any upstream call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
