package erp

import (
	"context"

	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/result"
)

// pipelineLimit is the page size for each stage query of the report.
const pipelineLimit = 20

// SalesPipeline aggregates leads, opportunities, and quotations into one
// composite report. The three list queries run sequentially and the
// aggregation is fail-fast: the first failing query's translated error is
// the whole result, and no partial data is ever returned.
func (s *Service) SalesPipeline(ctx context.Context) result.Result[Pipeline] {
	op := opInfo{
		name:     "sales_pipeline",
		action:   "read",
		resource: "sales records",
	}

	return run(ctx, s, op, nil, func(ctx context.Context, oc *opContext) (Pipeline, *result.ErrorInfo) {
		leadDocs, err := oc.client.ListDocs(ctx, "Lead", frappe.ListOptions{
			Fields: []string{"name", "lead_name", "status"},
			Limit:  pipelineLimit,
		})
		if err != nil {
			return Pipeline{}, translate(err, stageOp(op, "Lead"))
		}

		oppDocs, err := oc.client.ListDocs(ctx, "Opportunity", frappe.ListOptions{
			Fields: []string{"name", "party", "status", "amount", "expected_closing"},
			Limit:  pipelineLimit,
		})
		if err != nil {
			return Pipeline{}, translate(err, stageOp(op, "Opportunity"))
		}

		quotDocs, err := oc.client.ListDocs(ctx, "Quotation", frappe.ListOptions{
			Fields: []string{"name", "customer", "status", "grand_total", "transaction_date"},
			Limit:  pipelineLimit,
		})
		if err != nil {
			return Pipeline{}, translate(err, stageOp(op, "Quotation"))
		}

		pipeline := Pipeline{
			Leads:         make([]PipelineLead, 0, len(leadDocs)),
			Opportunities: make([]PipelineOpportunity, 0, len(oppDocs)),
			Quotations:    make([]PipelineQuotation, 0, len(quotDocs)),
		}

		for _, doc := range leadDocs {
			pipeline.Leads = append(pipeline.Leads, PipelineLead{
				Name:     docString(doc, "name"),
				LeadName: docString(doc, "lead_name"),
				Status:   docString(doc, "status"),
			})
		}
		for _, doc := range oppDocs {
			opp := PipelineOpportunity{
				Name:            docString(doc, "name"),
				Party:           docString(doc, "party"),
				Status:          docString(doc, "status"),
				Amount:          docFloat(doc, "amount"),
				ExpectedClosing: docString(doc, "expected_closing"),
			}
			pipeline.Opportunities = append(pipeline.Opportunities, opp)
			pipeline.Summary.OpportunityValue += opp.Amount
		}
		for _, doc := range quotDocs {
			quot := PipelineQuotation{
				Name:            docString(doc, "name"),
				Customer:        docString(doc, "customer"),
				Status:          docString(doc, "status"),
				GrandTotal:      docFloat(doc, "grand_total"),
				TransactionDate: docString(doc, "transaction_date"),
			}
			pipeline.Quotations = append(pipeline.Quotations, quot)
			pipeline.Summary.QuotationValue += quot.GrandTotal
		}

		pipeline.Summary.LeadCount = len(pipeline.Leads)
		pipeline.Summary.OpportunityCount = len(pipeline.Opportunities)
		pipeline.Summary.QuotationCount = len(pipeline.Quotations)
		return pipeline, nil
	})
}

// stageOp derives the per-stage translator info for one of the report's
// list queries.
func stageOp(op opInfo, doctype string) opInfo {
	return opInfo{
		name:     op.name,
		action:   "read",
		resource: doctype,
		notFound: doctype + " not found",
	}
}
