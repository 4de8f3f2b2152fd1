package erp

import (
	"context"

	"github.com/tallyforge/erpd/internal/result"
	"github.com/tallyforge/erpd/internal/validate"
)

// CreateLead creates a lead from a contact name and optional reach-out
// details. Empty optional fields are omitted from the created document.
func (s *Service) CreateLead(ctx context.Context, p LeadParams) result.Result[LeadCreated] {
	op := opInfo{
		name:     "lead_create",
		action:   "create",
		resource: "Lead",
		notFound: "Lead not found",
	}
	checks := []validate.Check{
		validate.Required("lead_name", p.LeadName),
		validate.Email("email", p.Email),
	}

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (LeadCreated, *result.ErrorInfo) {
		fields := map[string]any{"lead_name": p.LeadName}
		setIfPresent(fields, "email_id", p.Email)
		setIfPresent(fields, "mobile_no", p.Mobile)
		setIfPresent(fields, "company_name", p.Company)
		setIfPresent(fields, "source", p.Source)
		setIfPresent(fields, "territory", p.Territory)

		doc, err := oc.client.CreateDoc(ctx, "Lead", fields)
		if err != nil {
			return LeadCreated{}, translate(err, op)
		}

		name := docString(doc, "name")
		if name == "" {
			return LeadCreated{}, missingField(op, "name")
		}
		return LeadCreated{
			Name:     name,
			LeadName: firstNonEmpty(docString(doc, "lead_name"), p.LeadName),
			Status:   docString(doc, "status"),
		}, nil
	})
}

// CreateQuotation creates a quotation for a party. The reported grand
// total prefers the backend's own figure and falls back to the sum of
// qty times rate over the submitted items.
func (s *Service) CreateQuotation(ctx context.Context, p QuotationParams) result.Result[QuotationCreated] {
	op := opInfo{
		name:     "quotation_create",
		action:   "create",
		resource: "Quotation",
		notFound: "Quotation not found",
	}
	checks := append([]validate.Check{
		validate.Required("party", p.Party),
		validate.NonEmptySlice("items", p.Items),
	}, itemChecks(p.Items)...)

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (QuotationCreated, *result.ErrorInfo) {
		quotationTo := p.QuotationTo
		if quotationTo == "" {
			quotationTo = "Customer"
		}
		fields := map[string]any{
			"quotation_to": quotationTo,
			"party_name":   p.Party,
			"items":        itemRows(p.Items),
		}
		setIfPresent(fields, "valid_till", p.ValidTill)

		doc, err := oc.client.CreateDoc(ctx, "Quotation", fields)
		if err != nil {
			return QuotationCreated{}, translate(err, op)
		}

		name := docString(doc, "name")
		if name == "" {
			return QuotationCreated{}, missingField(op, "name")
		}
		grandTotal := docFloat(doc, "grand_total")
		if grandTotal == 0 {
			grandTotal = sumItems(p.Items)
		}
		return QuotationCreated{
			Name:       name,
			Party:      p.Party,
			GrandTotal: grandTotal,
			ItemsCount: len(p.Items),
		}, nil
	})
}

// CreateSalesOrder creates a sales order for a customer with a promised
// delivery date.
func (s *Service) CreateSalesOrder(ctx context.Context, p SalesOrderParams) result.Result[SalesOrderCreated] {
	op := opInfo{
		name:     "sales_order_create",
		action:   "create",
		resource: "Sales Order",
		notFound: "Sales Order not found",
	}
	checks := append([]validate.Check{
		validate.Required("customer", p.Customer),
		validate.Required("delivery_date", p.DeliveryDate),
		validate.NonEmptySlice("items", p.Items),
	}, itemChecks(p.Items)...)

	return run(ctx, s, op, checks, func(ctx context.Context, oc *opContext) (SalesOrderCreated, *result.ErrorInfo) {
		fields := map[string]any{
			"customer":      p.Customer,
			"delivery_date": p.DeliveryDate,
			"items":         itemRows(p.Items),
		}

		doc, err := oc.client.CreateDoc(ctx, "Sales Order", fields)
		if err != nil {
			return SalesOrderCreated{}, translate(err, op)
		}

		name := docString(doc, "name")
		if name == "" {
			return SalesOrderCreated{}, missingField(op, "name")
		}
		grandTotal := docFloat(doc, "grand_total")
		if grandTotal == 0 {
			grandTotal = sumItems(p.Items)
		}
		return SalesOrderCreated{
			Name:         name,
			Customer:     p.Customer,
			DeliveryDate: firstNonEmpty(docString(doc, "delivery_date"), p.DeliveryDate),
			GrandTotal:   grandTotal,
		}, nil
	})
}

// itemChecks builds the per-line checks shared by quotation and sales
// order creation. Declaration order fixes the violation order: item_code,
// then qty, then rate, line by line.
func itemChecks(items []Item) []validate.Check {
	checks := make([]validate.Check, 0, len(items)*3)
	for i, item := range items {
		checks = append(checks,
			validate.Required(validate.Indexed("items", i, "item_code"), item.ItemCode),
			validate.GreaterThanZero(validate.Indexed("items", i, "qty"), item.Qty),
			validate.NonNegative(validate.Indexed("items", i, "rate"), item.Rate),
		)
	}
	return checks
}

// itemRows converts line items to backend row maps.
func itemRows(items []Item) []map[string]any {
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		rows[i] = map[string]any{
			"item_code": item.ItemCode,
			"qty":       item.Qty,
			"rate":      item.Rate,
		}
	}
	return rows
}

// setIfPresent writes a field only when the value is non-empty.
func setIfPresent(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
