package erp

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyforge/erpd/internal/result"
)

func TestSalesPipeline(t *testing.T) {
	t.Run("aggregates_all_three_stages", func(t *testing.T) {
		var paths []string
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			assert.Equal(t, "20", r.URL.Query().Get("limit_page_length"))

			switch r.URL.Path {
			case "/api/resource/Lead":
				fmt.Fprint(w, `{"data":[
					{"name":"CRM-LEAD-0001","lead_name":"Jane Cooper","status":"Open"},
					{"name":"CRM-LEAD-0002","lead_name":"John Smith","status":"Replied"}
				]}`)
			case "/api/resource/Opportunity":
				fmt.Fprint(w, `{"data":[
					{"name":"CRM-OPP-0001","party":"Acme Corp","status":"Open","amount":1000.0,"expected_closing":"2026-09-30"},
					{"name":"CRM-OPP-0002","party":"Globex","status":"Quotation","amount":2000.0}
				]}`)
			case "/api/resource/Quotation":
				fmt.Fprint(w, `{"data":[
					{"name":"SAL-QTN-0001","customer":"Acme Corp","status":"Open","grand_total":1500.0,"transaction_date":"2026-08-20"}
				]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		res := svc.SalesPipeline(context.Background())
		require.True(t, res.OK, "unexpected error: %v", res.Err)

		assert.Equal(t, []string{
			"/api/resource/Lead",
			"/api/resource/Opportunity",
			"/api/resource/Quotation",
		}, paths)

		pipeline := *res.Data
		require.Len(t, pipeline.Leads, 2)
		assert.Equal(t, PipelineLead{Name: "CRM-LEAD-0001", LeadName: "Jane Cooper", Status: "Open"}, pipeline.Leads[0])

		require.Len(t, pipeline.Opportunities, 2)
		assert.Equal(t, PipelineOpportunity{
			Name:            "CRM-OPP-0001",
			Party:           "Acme Corp",
			Status:          "Open",
			Amount:          1000,
			ExpectedClosing: "2026-09-30",
		}, pipeline.Opportunities[0])
		assert.Empty(t, pipeline.Opportunities[1].ExpectedClosing)

		require.Len(t, pipeline.Quotations, 1)
		assert.Equal(t, 1500.0, pipeline.Quotations[0].GrandTotal)

		assert.Equal(t, PipelineSummary{
			LeadCount:        2,
			OpportunityCount: 2,
			QuotationCount:   1,
			OpportunityValue: 3000,
			QuotationValue:   1500,
		}, pipeline.Summary)
	})

	t.Run("empty_backend_yields_zero_report", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[]}`)
		}))

		res := svc.SalesPipeline(context.Background())
		require.True(t, res.OK)
		assert.NotNil(t, res.Data.Leads)
		assert.Empty(t, res.Data.Leads)
		assert.Zero(t, res.Data.Summary.OpportunityValue)
	})

	t.Run("first_stage_failure_stops_the_report", func(t *testing.T) {
		var calls int
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"database is locked"}`)
		}))

		res := svc.SalesPipeline(context.Background())
		require.False(t, res.OK)
		assert.Nil(t, res.Data, "a failed report must not carry partial data")
		assert.Equal(t, result.FieldError, res.Err.Code)
		assert.Equal(t, "database is locked", res.Err.Message)
		assert.Equal(t, 1, calls, "later stages must not run after a failure")
	})

	t.Run("middle_stage_permission_failure", func(t *testing.T) {
		var paths []string
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/api/resource/Opportunity" {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"message":"PermissionError"}`)
				return
			}
			fmt.Fprint(w, `{"data":[{"name":"CRM-LEAD-0001"}]}`)
		}))

		res := svc.SalesPipeline(context.Background())
		require.False(t, res.OK)
		assert.Nil(t, res.Data)
		assert.Equal(t, result.PermissionDenied, res.Err.Code)
		assert.Equal(t, "Permission denied: cannot read Opportunity", res.Err.Message)
		assert.Equal(t, []string{"/api/resource/Lead", "/api/resource/Opportunity"}, paths)
	})

	t.Run("missing_quotation_doctype", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/resource/Quotation" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"DoesNotExistError"}`)
				return
			}
			fmt.Fprint(w, `{"data":[]}`)
		}))

		res := svc.SalesPipeline(context.Background())
		require.False(t, res.OK)
		assert.Equal(t, result.NotFound, res.Err.Code)
		assert.Equal(t, "Quotation not found", res.Err.Message)
	})

	t.Run("network_failure_is_a_field_error", func(t *testing.T) {
		srv, svc := newClosableService(t)
		srv.Close()

		res := svc.SalesPipeline(context.Background())
		require.False(t, res.OK)
		assert.Equal(t, result.FieldError, res.Err.Code)
		assert.NotEmpty(t, res.Err.Message)
	})
}
