package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civicworks/billchat/internal/govinfo"
	"github.com/civicworks/billchat/internal/semantic"
)

var searchBillsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Text to search for in bills (required)"
		},
		"dateIssuedStartDate": {
			"type": "string",
			"description": "Start date in YYYY-MM-DD format. Must be 2014-01-01 or later. Defaults to 2014-01-01."
		},
		"dateIssuedEndDate": {
			"type": "string",
			"description": "End date in YYYY-MM-DD format. Defaults to today."
		},
		"pageSize": {
			"type": "integer",
			"description": "Number of results to return (default: 10)"
		}
	},
	"required": ["query"]
}`)

var billDetailsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"packageId": {
			"type": "string",
			"description": "The GovInfo package ID for the bill"
		}
	},
	"required": ["packageId"]
}`)

var emptySchema = json.RawMessage(`{
	"type": "object",
	"properties": {}
}`)

var semanticSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Natural-language topic to match bills against by meaning"
		},
		"dateIssuedStartDate": {
			"type": "string",
			"description": "Start date in YYYY-MM-DD format. Defaults to 2014-01-01."
		},
		"dateIssuedEndDate": {
			"type": "string",
			"description": "End date in YYYY-MM-DD format. Defaults to today."
		}
	},
	"required": ["query"]
}`)

type packageIDArgs struct {
	PackageID string `json:"packageId"`
}

// RegisterBillTools binds the GovInfo-backed tools into the registry.
func RegisterBillTools(r *Registry, client *govinfo.Client) error {
	register := func(name, description string, schema json.RawMessage, handler Handler) error {
		if err := r.Register(name, description, schema, handler); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
		return nil
	}

	if err := register("search_bills",
		"Search for U.S. government bills and legislation by text query. Data is available from January 1, 2014 onwards.",
		searchBillsSchema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var params govinfo.SearchBillsParams
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("decode search_bills arguments: %w", err)
			}
			return client.SearchBills(ctx, params)
		}); err != nil {
		return err
	}

	if err := register("get_bill_summary",
		"Get the summary of a specific bill using its package ID.",
		billDetailsSchema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var params packageIDArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("decode get_bill_summary arguments: %w", err)
			}
			return client.GetPackageSummary(ctx, params.PackageID)
		}); err != nil {
		return err
	}

	if err := register("get_bill_details",
		"Get detailed information about a specific bill using its package ID.",
		billDetailsSchema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var params packageIDArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("decode get_bill_details arguments: %w", err)
			}
			return client.GetBillDetails(ctx, params.PackageID)
		}); err != nil {
		return err
	}

	if err := register("get_related_bills",
		"Get bills and documents related to a specific bill using its package ID.",
		billDetailsSchema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var params packageIDArgs
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("decode get_related_bills arguments: %w", err)
			}
			return client.GetRelatedBills(ctx, params.PackageID)
		}); err != nil {
		return err
	}

	if err := register("list_collections",
		"List the document collections available in GovInfo.",
		emptySchema,
		func(ctx context.Context, _ json.RawMessage) (any, error) {
			return client.GetCollections(ctx)
		}); err != nil {
		return err
	}

	return nil
}

// RegisterSemanticSearch binds the embedding-backed search tool. Only called
// when a database is configured.
func RegisterSemanticSearch(r *Registry, store *semantic.Store) error {
	return r.Register("semantic_search_bills",
		"Search bills by meaning rather than keywords, ranked by semantic similarity to the query.",
		semanticSearchSchema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Query               string `json:"query"`
				DateIssuedStartDate string `json:"dateIssuedStartDate"`
				DateIssuedEndDate   string `json:"dateIssuedEndDate"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("decode semantic_search_bills arguments: %w", err)
			}
			start := params.DateIssuedStartDate
			if start == "" {
				start = "2014-01-01"
			}
			end := params.DateIssuedEndDate
			if end == "" {
				end = time.Now().Format("2006-01-02")
			}
			matches, err := store.Search(ctx, params.Query, start, end)
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": len(matches), "bills": matches}, nil
		})
}
