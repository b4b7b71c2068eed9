/*
Package gripp mirrors project administration records from the Gripp CRM.

PURPOSE:
  The allocation engine consumes project snapshots; this package fetches
  them. Gripp exposes a batched JSON API: a POST carries an array of
  method calls, the response an array of paged results. The client wraps
  that protocol; sync.go turns fetched records into allocation.Project
  aggregates and writes them to a ProjectStore.

MAGIC NUMBERS:
  Gripp encodes invoice bases and project types as numeric ids. They are
  translated to the engine's closed enums here, at the mirror boundary,
  exactly once. Nothing downstream ever sees a raw id.

SEE ALSO:
  - sync.go: Snapshot assembly and store writes
  - allocation/classify.go: Consumes the resolved InvoiceBasis
*/
package gripp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gripp/revenue-engine/allocation"
)

// ErrMissingCredentials is returned when the environment carries no API
// configuration. The server then runs on mirrored data only.
var ErrMissingCredentials = errors.New("gripp: GRIPP_API_URL and GRIPP_API_TOKEN not set")

// Client talks to the Gripp batch API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientFromEnv builds a client from GRIPP_API_URL and
// GRIPP_API_TOKEN (loaded from .env by the caller).
func NewClientFromEnv() (*Client, error) {
	url := os.Getenv("GRIPP_API_URL")
	token := os.Getenv("GRIPP_API_TOKEN")
	if url == "" || token == "" {
		return nil, ErrMissingCredentials
	}
	return NewClient(url, token), nil
}

// =============================================================================
// BATCH PROTOCOL
// =============================================================================

const pageSize = 250

type apiRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

type apiResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type apiPage struct {
	Rows      json.RawMessage `json:"rows"`
	MoreItems bool            `json:"more_items_in_collection"`
	NextStart int             `json:"next_start"`
}

type filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// fetchAll pages through one API method and decodes every row batch
// into collect.
func (c *Client) fetchAll(ctx context.Context, method string, filters []filter, collect func(rows json.RawMessage) error) error {
	start := 0
	for {
		options := map[string]any{
			"paging": map[string]int{"firstresult": start, "maxresults": pageSize},
		}
		body, err := json.Marshal([]apiRequest{{
			Method: method,
			Params: []any{filters, options},
			ID:     1,
		}})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("gripp: %s: %w", method, err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("gripp: %s returned status %d", method, resp.StatusCode)
		}

		var batch []apiResponse
		err = json.NewDecoder(resp.Body).Decode(&batch)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("gripp: decode %s response: %w", method, err)
		}
		if len(batch) == 0 {
			return fmt.Errorf("gripp: empty batch response for %s", method)
		}
		if len(batch[0].Error) > 0 && string(batch[0].Error) != "null" {
			return fmt.Errorf("gripp: %s failed: %s", method, batch[0].Error)
		}

		var page apiPage
		if err := json.Unmarshal(batch[0].Result, &page); err != nil {
			return fmt.Errorf("gripp: decode %s page: %w", method, err)
		}
		if len(page.Rows) > 0 {
			if err := collect(page.Rows); err != nil {
				return err
			}
		}

		if !page.MoreItems {
			return nil
		}
		start = page.NextStart
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// ref is Gripp's {"id": ..., "searchname": ...} relation shape.
type ref struct {
	ID   int64  `json:"id"`
	Name string `json:"searchname"`
}

type projectRecord struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Number        int64   `json:"number"`
	Archived      bool    `json:"archived"`
	TotalBudget   float64 `json:"totalinclbudget"`
	PrevYearSpent float64 `json:"budgetspentpreviousyears"`
	Type          ref     `json:"type"`
}

type projectLineRecord struct {
	ID            int64   `json:"id"`
	Project       ref     `json:"offerprojectbase"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`        // budgeted hours
	AmountWritten float64 `json:"amountwritten"` // hours recorded so far
	SellingPrice  float64 `json:"sellingprice"`
	InvoiceBasis  ref     `json:"invoicebasis"`
}

type hourRecord struct {
	ID          int64   `json:"id"`
	Project     ref     `json:"offerprojectbase"`
	Line        *ref    `json:"offerprojectline"`
	Employee    ref     `json:"employee"`
	Date        string  `json:"date"` // 2006-01-02
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Projects fetches all non-archived projects.
func (c *Client) Projects(ctx context.Context) ([]projectRecord, error) {
	var records []projectRecord
	filters := []filter{{Field: "project.archived", Operator: "equals", Value: false}}
	err := c.fetchAll(ctx, "project.get", filters, func(rows json.RawMessage) error {
		var page []projectRecord
		if err := json.Unmarshal(rows, &page); err != nil {
			return err
		}
		records = append(records, page...)
		return nil
	})
	return records, err
}

// ProjectLines fetches all project lines.
func (c *Client) ProjectLines(ctx context.Context) ([]projectLineRecord, error) {
	var records []projectLineRecord
	err := c.fetchAll(ctx, "offerprojectline.get", nil, func(rows json.RawMessage) error {
		var page []projectLineRecord
		if err := json.Unmarshal(rows, &page); err != nil {
			return err
		}
		records = append(records, page...)
		return nil
	})
	return records, err
}

// Hours fetches all definitive hour bookings for one calendar year.
func (c *Client) Hours(ctx context.Context, year int) ([]hourRecord, error) {
	var records []hourRecord
	filters := []filter{
		{Field: "hour.date", Operator: "greaterequals", Value: fmt.Sprintf("%d-01-01", year)},
		{Field: "hour.date", Operator: "lessequals", Value: fmt.Sprintf("%d-12-31", year)},
	}
	err := c.fetchAll(ctx, "hour.get", filters, func(rows json.RawMessage) error {
		var page []hourRecord
		if err := json.Unmarshal(rows, &page); err != nil {
			return err
		}
		records = append(records, page...)
		return nil
	})
	return records, err
}

// =============================================================================
// ID TRANSLATION - resolved once, at the boundary
// =============================================================================

const (
	invoiceBasisFixedID        = 1
	invoiceBasisHourlyID       = 2
	invoiceBasisSubscriptionID = 3
	invoiceBasisNonBillableID  = 4
)

func mapInvoiceBasis(id int64) allocation.InvoiceBasis {
	switch id {
	case invoiceBasisHourlyID:
		return allocation.BasisHourlyRate
	case invoiceBasisSubscriptionID:
		return allocation.BasisSubscription
	case invoiceBasisNonBillableID:
		return allocation.BasisNonBillable
	default:
		// Unknown ids stay on the capped class; the classifier would
		// make the same call, but the mirror should not store raw ids.
		return allocation.BasisFixedPrice
	}
}

const (
	projectTypeFixedID    = 1
	projectTypeHourlyID   = 2
	projectTypeInternalID = 3
	projectTypeContractID = 4
	projectTypeQuoteID    = 5
)

func mapProjectType(r ref) allocation.ProjectType {
	switch r.ID {
	case projectTypeHourlyID:
		return allocation.TypeHourlyRate
	case projectTypeInternalID:
		return allocation.TypeInternal
	case projectTypeContractID:
		return allocation.TypeContract
	case projectTypeQuoteID:
		return allocation.TypeQuote
	default:
		return allocation.TypeFixedPrice
	}
}
