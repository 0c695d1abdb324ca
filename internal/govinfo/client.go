package govinfo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// minSearchDate is the earliest date the indexed data covers.
const minSearchDate = "2014-01-01"

const (
	defaultPageSize = 10
	dateLayout      = "2006-01-02"
)

// Client talks to the GovInfo REST API and normalizes its responses.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client

	// now is injectable for date-default tests.
	now func() time.Time
}

// NewClient creates a GovInfo client. timeout bounds every upstream call;
// zero means the 15s default.
func NewClient(baseURL, apiKey string, timeout time.Duration, client *http.Client) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
		now:     time.Now,
	}
}

type searchRequestBody struct {
	Query      string       `json:"query"`
	PageSize   int          `json:"pageSize"`
	OffsetMark string       `json:"offsetMark"`
	Sorts      []searchSort `json:"sorts"`
	Historical bool         `json:"historical"`
}

type searchSort struct {
	Field     string `json:"field"`
	SortOrder string `json:"sortOrder"`
}

type searchResponseBody struct {
	Count   int `json:"count"`
	Results []struct {
		PackageID  string `json:"packageId"`
		Title      string `json:"title"`
		DateIssued string `json:"dateIssued"`
		ResultLink string `json:"resultLink"`
	} `json:"results"`
}

// SearchBills runs a full-text search over the BILLS collection and maps
// each raw hit into a BillRecord. The date range defaults to
// [2014-01-01, today]; explicit start dates before the floor are rejected.
func (c *Client) SearchBills(ctx context.Context, params SearchBillsParams) (*SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}

	start, end, err := c.resolveDateRange(params.DateIssuedStartDate, params.DateIssuedEndDate)
	if err != nil {
		return nil, err
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	body := searchRequestBody{
		Query: fmt.Sprintf("collection:BILLS AND (%s) AND dateIssued:range(%s,%s)",
			params.Query, start, end),
		PageSize:   pageSize,
		OffsetMark: "*",
		Sorts:      []searchSort{{Field: "dateIssued", SortOrder: "DESC"}},
		Historical: true,
	}

	var raw searchResponseBody
	if err := c.post(ctx, "/search", body, &raw); err != nil {
		return nil, err
	}

	if raw.Count == 0 || len(raw.Results) == 0 {
		return &SearchResult{Count: 0, Bills: []BillRecord{}}, nil
	}

	result := &SearchResult{Count: raw.Count, Bills: make([]BillRecord, 0, len(raw.Results))}
	for _, hit := range raw.Results {
		parsed := ParsePackageID(hit.PackageID)

		record := BillRecord{
			Title:      hit.Title,
			Congress:   parsed.Congress,
			DateIssued: hit.DateIssued,
			PackageID:  hit.PackageID,
			BillNumber: parsed.BillNumber,
			BillType:   parsed.BillType,
			Version:    parsed.Version,
			URL:        "https://www.govinfo.gov/app/details/" + hit.PackageID,
			Summary:    hit.ResultLink,
		}
		if record.Title == "" {
			record.Title = "Untitled"
		}
		if record.DateIssued == "" {
			record.DateIssued = "Date unknown"
		}
		result.Bills = append(result.Bills, record)
	}
	return result, nil
}

func (c *Client) resolveDateRange(start, end string) (string, string, error) {
	if start == "" {
		start = minSearchDate
	} else {
		startDay, err := time.Parse(dateLayout, start)
		if err != nil {
			return "", "", &ValidationError{Field: "dateIssuedStartDate", Message: "must be YYYY-MM-DD"}
		}
		floor, _ := time.Parse(dateLayout, minSearchDate)
		if startDay.Before(floor) {
			return "", "", &ValidationError{
				Field:   "dateIssuedStartDate",
				Message: "must be " + minSearchDate + " or later",
			}
		}
	}
	if end == "" {
		end = c.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, end); err != nil {
		return "", "", &ValidationError{Field: "dateIssuedEndDate", Message: "must be YYYY-MM-DD"}
	}
	return start, end, nil
}

// GetPackageSummary fetches a package summary. A 404 maps to a benign
// "no summary available" result, not an error.
func (c *Client) GetPackageSummary(ctx context.Context, packageID string) (*PackageSummary, error) {
	var summary map[string]any
	err := c.get(ctx, "/packages/"+url.PathEscape(packageID)+"/summary", nil, &summary)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return &PackageSummary{
				Available: false,
				Message:   "No summary available for " + packageID,
			}, nil
		}
		return nil, err
	}
	return &PackageSummary{Available: true, Summary: summary}, nil
}

// GetBillDetails fetches full package details.
func (c *Client) GetBillDetails(ctx context.Context, packageID string) (map[string]any, error) {
	var details map[string]any
	if err := c.get(ctx, "/packages/"+url.PathEscape(packageID)+"/details", nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetRelatedBills fetches the related-documents listing for a package.
func (c *Client) GetRelatedBills(ctx context.Context, packageID string) (map[string]any, error) {
	var related map[string]any
	if err := c.get(ctx, "/packages/"+url.PathEscape(packageID)+"/related", nil, &related); err != nil {
		return nil, err
	}
	return related, nil
}

// GetCollections lists the available document collections.
func (c *Client) GetCollections(ctx context.Context) (map[string]any, error) {
	var collections map[string]any
	if err := c.get(ctx, "/collections", nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// GetPublishedPackages lists packages published in a date range.
func (c *Client) GetPublishedPackages(ctx context.Context, params PublishedParams) (map[string]any, error) {
	if params.StartDate == "" {
		return nil, &ValidationError{Field: "startDate", Message: "must not be empty"}
	}
	if len(params.Collections) == 0 {
		return nil, &ValidationError{Field: "collections", Message: "must not be empty"}
	}

	path := "/published/" + url.PathEscape(params.StartDate)
	if params.EndDate != "" {
		path += "/" + url.PathEscape(params.EndDate)
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))
	query.Set("collection", strings.Join(params.Collections, ","))
	if params.Congress != "" {
		query.Set("congress", params.Congress)
	}
	if params.OffsetMark != "" {
		query.Set("offsetMark", params.OffsetMark)
	}

	var published map[string]any
	if err := c.get(ctx, path, query, &published); err != nil {
		return nil, err
	}
	return published, nil
}

// GetLastModifiedPackages lists packages in a collection modified since a date.
func (c *Client) GetLastModifiedPackages(ctx context.Context, params LastModifiedParams) (map[string]any, error) {
	if params.Collection == "" {
		return nil, &ValidationError{Field: "collection", Message: "must not be empty"}
	}
	if params.StartDate == "" {
		return nil, &ValidationError{Field: "startDate", Message: "must not be empty"}
	}

	path := "/collections/" + url.PathEscape(params.Collection) + "/" + url.PathEscape(params.StartDate)
	if params.EndDate != "" {
		path += "/" + url.PathEscape(params.EndDate)
	}

	query := url.Values{}
	if params.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	if params.Congress != "" {
		query.Set("congress", params.Congress)
	}
	if params.OffsetMark != "" {
		query.Set("offsetMark", params.OffsetMark)
	}

	var modified map[string]any
	if err := c.get(ctx, path, query, &modified); err != nil {
		return nil, err
	}
	return modified, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal govinfo request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, data, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("create govinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("govinfo request timed out", "method", method, "path", path, "timeout", c.timeout)
			return ErrRequestTimeout
		}
		return fmt.Errorf("govinfo request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Status: reasonPhrase(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		// The deadline can expire mid-body; keep that distinguishable
		// from a malformed payload.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("govinfo request timed out", "method", method, "path", path, "timeout", c.timeout)
			return ErrRequestTimeout
		}
		return fmt.Errorf("decode govinfo response %s %s: %w", method, path, err)
	}
	return nil
}

// reasonPhrase extracts the textual status from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if _, phrase, found := strings.Cut(resp.Status, " "); found {
		return phrase
	}
	return resp.Status
}
