package erp

import (
	"context"
	"fmt"

	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/result"
	"github.com/tallyforge/erpd/internal/validate"
)

// leadFields is the projection read from the source lead during
// conversion; the customer's fields derive from it.
var leadFields = []string{"name", "lead_name", "company_name", "email_id", "mobile_no", "territory"}

// ConvertLeadToCustomer runs the three-step conversion saga: read the lead,
// create a customer from it, then mark the lead converted.
//
// The saga is not atomic and performs no compensation: when the final
// status update fails after the customer was created, the customer
// persists and the update's error is returned. Callers retrying a failed
// conversion may therefore find the customer already present.
//
// Any failure reading the lead — zero matches or a failed list query of
// whatever kind — reports NOT_FOUND with the fixed "Lead not found" text.
func (s *Service) ConvertLeadToCustomer(ctx context.Context, p ConvertParams) result.Result[Conversion] {
	op := opInfo{
		name:     "lead_convert",
		action:   "convert",
		resource: "Lead",
		notFound: "Lead not found",
	}
	checks := []validate.Check{
		validate.Required("lead_name", p.LeadName),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (Conversion, *result.ErrorInfo) {
		leads, err := oc.client.ListDocs(ctx, "Lead", frappe.ListOptions{
			Fields:  leadFields,
			Filters: [][]any{{"name", "=", p.LeadName}},
			Limit:   1,
		})
		if err != nil || len(leads) == 0 {
			// Read failures normalize to NOT_FOUND regardless of their
			// original kind.
			return Conversion{}, result.Errorf(result.NotFound, "Lead not found")
		}
		lead := leads[0]

		companyName := docString(lead, "company_name")
		customerType := "Individual"
		if companyName != "" {
			customerType = "Company"
		}

		created, err := oc.client.CreateDoc(ctx, "Customer", map[string]any{
			"customer_name":  firstNonEmpty(p.CustomerName, companyName, docString(lead, "lead_name")),
			"customer_type":  customerType,
			"customer_group": firstNonEmpty(p.CustomerGroup, "All Customer Groups"),
			"territory":      firstNonEmpty(p.Territory, docString(lead, "territory"), "All Territories"),
		})
		if err != nil {
			createOp := opInfo{
				name:     op.name,
				action:   "create",
				resource: "Customer",
				notFound: "Customer not found",
			}
			return Conversion{}, translate(err, createOp)
		}

		customerID := docString(created, "name")
		if customerID == "" {
			return Conversion{}, missingField(op, "name")
		}

		if _, err := oc.client.UpdateDoc(ctx, "Lead", p.LeadName, map[string]any{"status": "Converted"}); err != nil {
			// No compensation: the created customer stays.
			updateOp := opInfo{
				name:     op.name,
				action:   "update",
				resource: "Lead",
				notFound: fmt.Sprintf("Lead/%s not found", p.LeadName),
			}
			return Conversion{}, translate(err, updateOp)
		}

		return Conversion{
			Customer: customerID,
			Lead:     p.LeadName,
			Status:   "Converted",
		}, nil
	})
}
