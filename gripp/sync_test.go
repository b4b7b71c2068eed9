package gripp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gripp/revenue-engine/allocation"
	"github.com/gripp/revenue-engine/gripp"
	"github.com/gripp/revenue-engine/store"
)

// fakeGripp serves canned rows per API method in the batch protocol.
func fakeGripp(t *testing.T, rowsByMethod map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var batch []struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.Len(t, batch, 1)

		rows, ok := rowsByMethod[batch[0].Method]
		if !ok {
			rows = "[]"
		}
		fmt.Fprintf(w, `[{"id": %d, "result": {"rows": %s, "more_items_in_collection": false}}]`,
			batch[0].ID, rows)
	}))
}

func TestSyncer_Run(t *testing.T) {
	// GIVEN: A CRM with one fixed-price project, two lines (one
	//        non-billable) and three hour bookings, one unassigned
	// WHEN: Running a sync for 2025
	// THEN: The store holds one assembled project with month buckets,
	//       resolved invoice bases and line rates joined onto entries

	srv := fakeGripp(t, map[string]string{
		"project.get": `[{
			"id": 7, "name": "Webshop", "number": 2025014, "archived": false,
			"totalinclbudget": 20000, "budgetspentpreviousyears": 15000,
			"type": {"id": 1, "searchname": "Fixed"}
		}]`,
		"offerprojectline.get": `[
			{"id": 71, "offerprojectbase": {"id": 7}, "description": "Build",
			 "amount": 200, "amountwritten": 80, "sellingprice": 100,
			 "invoicebasis": {"id": 1}},
			{"id": 72, "offerprojectbase": {"id": 7}, "description": "Warranty",
			 "amount": 0, "amountwritten": 0, "sellingprice": 0,
			 "invoicebasis": {"id": 4}}
		]`,
		"hour.get": `[
			{"id": 1, "offerprojectbase": {"id": 7}, "offerprojectline": {"id": 71},
			 "employee": {"id": 3, "searchname": "R. de Vries"},
			 "date": "2025-01-14", "amount": 40, "description": "sprint 1"},
			{"id": 2, "offerprojectbase": {"id": 7}, "offerprojectline": {"id": 72},
			 "employee": {"id": 3, "searchname": "R. de Vries"},
			 "date": "2025-02-03", "amount": 4},
			{"id": 3, "offerprojectbase": {"id": 7},
			 "employee": {"id": 4, "searchname": "M. Jansen"},
			 "date": "2025-02-20", "amount": 2}
		]`,
	})
	defer srv.Close()

	st := store.NewMemory()
	syncer := gripp.NewSyncer(gripp.NewClient(srv.URL, "test-token"), st)

	report, err := syncer.Run(context.Background(), 2025)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Projects)
	assert.Equal(t, 2, report.Lines)
	assert.Equal(t, 3, report.Entries)

	p, err := st.GetProject(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, allocation.TypeFixedPrice, p.Type)
	assert.True(t, p.TotalBudget.Equal(allocation.NewMoney(20000)))
	assert.True(t, p.PriorYearConsumed.Equal(allocation.NewMoney(15000)))

	require.Len(t, p.Lines, 2)
	assert.Equal(t, allocation.BasisFixedPrice, p.Lines[0].InvoiceBasis)
	assert.Equal(t, allocation.BasisNonBillable, p.Lines[1].InvoiceBasis)

	require.Len(t, p.Months[0], 1)
	jan := p.Months[0][0]
	require.NotNil(t, jan.LineID)
	assert.Equal(t, allocation.LineID(71), *jan.LineID)
	assert.True(t, jan.HourlyRate.Equal(allocation.NewMoney(100)), "line rate joined onto the entry")
	assert.Equal(t, "R. de Vries", jan.Employee)

	require.Len(t, p.Months[1], 2)
	unassigned := p.Months[1][1]
	assert.Nil(t, unassigned.LineID, "unassigned booking stays unassigned")
	assert.True(t, unassigned.HourlyRate.IsZero(),
		"no line means no rate to join; the booking carries no value until attributed")
}

func TestClient_NonOKStatusIsReported(t *testing.T) {
	// GIVEN: A CRM answering with a non-JSON maintenance page
	// THEN: The error names the status, not a decode failure

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := gripp.NewClient(srv.URL, "test-token").Projects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSyncer_MalformedDateIsSkipped(t *testing.T) {
	srv := fakeGripp(t, map[string]string{
		"project.get": `[{"id": 7, "name": "X", "type": {"id": 1},
			"totalinclbudget": 100, "budgetspentpreviousyears": 0}]`,
		"hour.get": `[
			{"id": 1, "offerprojectbase": {"id": 7}, "date": "not-a-date", "amount": 8},
			{"id": 2, "offerprojectbase": {"id": 7}, "date": "2025-05-01", "amount": 8}
		]`,
	})
	defer srv.Close()

	st := store.NewMemory()
	report, err := gripp.NewSyncer(gripp.NewClient(srv.URL, "test-token"), st).Run(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entries)
}

func TestNewClientFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GRIPP_API_URL", "")
	t.Setenv("GRIPP_API_TOKEN", "")
	_, err := gripp.NewClientFromEnv()
	assert.ErrorIs(t, err, gripp.ErrMissingCredentials)
}
