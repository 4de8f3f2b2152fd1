package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallyforge/erpd/internal/erp"
	"github.com/tallyforge/erpd/internal/result"
)

type itemInput struct {
	ItemCode string  `json:"item_code" jsonschema:"required,Item code"`
	Qty      float64 `json:"qty" jsonschema:"required,Quantity; must be greater than zero"`
	Rate     float64 `json:"rate" jsonschema:"required,Unit price; zero is allowed for free-of-charge lines"`
}

type leadCreateInput struct {
	LeadName  string `json:"lead_name" jsonschema:"required,Contact or organization name"`
	Email     string `json:"email,omitempty" jsonschema:"Contact email address"`
	Mobile    string `json:"mobile,omitempty" jsonschema:"Contact mobile number"`
	Company   string `json:"company,omitempty" jsonschema:"Company the contact represents"`
	Source    string `json:"source,omitempty" jsonschema:"How the lead was acquired"`
	Territory string `json:"territory,omitempty" jsonschema:"Sales territory"`
}

type quotationCreateInput struct {
	QuotationTo string      `json:"quotation_to,omitempty" jsonschema:"Party type; Customer or Lead (default Customer)"`
	Party       string      `json:"party" jsonschema:"required,Customer or lead the quotation is addressed to"`
	Items       []itemInput `json:"items" jsonschema:"required,Line items"`
	ValidTill   string      `json:"valid_till,omitempty" jsonschema:"Validity end date in YYYY-MM-DD format"`
}

type salesOrderCreateInput struct {
	Customer     string      `json:"customer" jsonschema:"required,Customer name"`
	DeliveryDate string      `json:"delivery_date" jsonschema:"required,Promised delivery date in YYYY-MM-DD format"`
	Items        []itemInput `json:"items" jsonschema:"required,Line items"`
}

type leadConvertInput struct {
	LeadName      string `json:"lead_name" jsonschema:"required,Name of the lead document to convert"`
	CustomerName  string `json:"customer_name,omitempty" jsonschema:"Override for the new customer name"`
	CustomerGroup string `json:"customer_group,omitempty" jsonschema:"Customer group (default All Customer Groups)"`
	Territory     string `json:"territory,omitempty" jsonschema:"Territory override; defaults to the lead's territory"`
}

type salesPipelineInput struct{}

// toItems converts tool line items to operation line items.
func toItems(items []itemInput) []erp.Item {
	converted := make([]erp.Item, len(items))
	for i, item := range items {
		converted[i] = erp.Item{
			ItemCode: item.ItemCode,
			Qty:      item.Qty,
			Rate:     item.Rate,
		}
	}
	return converted
}

func (s *Server) registerSalesTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lead_create",
		Description: "Create a CRM lead from a contact name with optional email, phone, company, source, and territory.",
	}, toolHandler(s, "lead_create",
		func(ctx context.Context, args leadCreateInput) result.Result[erp.LeadCreated] {
			return s.ops.CreateLead(ctx, erp.LeadParams{
				LeadName:  args.LeadName,
				Email:     args.Email,
				Mobile:    args.Mobile,
				Company:   args.Company,
				Source:    args.Source,
				Territory: args.Territory,
			})
		},
		func(out *erp.LeadCreated) string {
			return fmt.Sprintf("Lead created: %s", out.Name)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "quotation_create",
		Description: "Create a sales quotation for a customer or lead with line items.",
	}, toolHandler(s, "quotation_create",
		func(ctx context.Context, args quotationCreateInput) result.Result[erp.QuotationCreated] {
			return s.ops.CreateQuotation(ctx, erp.QuotationParams{
				QuotationTo: args.QuotationTo,
				Party:       args.Party,
				Items:       toItems(args.Items),
				ValidTill:   args.ValidTill,
			})
		},
		func(out *erp.QuotationCreated) string {
			return fmt.Sprintf("Quotation created: %s (total %.2f)", out.Name, out.GrandTotal)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "sales_order_create",
		Description: "Create a sales order for a customer with a delivery date and line items.",
	}, toolHandler(s, "sales_order_create",
		func(ctx context.Context, args salesOrderCreateInput) result.Result[erp.SalesOrderCreated] {
			return s.ops.CreateSalesOrder(ctx, erp.SalesOrderParams{
				Customer:     args.Customer,
				DeliveryDate: args.DeliveryDate,
				Items:        toItems(args.Items),
			})
		},
		func(out *erp.SalesOrderCreated) string {
			return fmt.Sprintf("Sales order created: %s (delivery %s)", out.Name, out.DeliveryDate)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lead_convert",
		Description: "Convert a lead into a customer and mark the lead converted. The created customer persists even when the final status update fails.",
	}, toolHandler(s, "lead_convert",
		func(ctx context.Context, args leadConvertInput) result.Result[erp.Conversion] {
			return s.ops.ConvertLeadToCustomer(ctx, erp.ConvertParams{
				LeadName:      args.LeadName,
				CustomerName:  args.CustomerName,
				CustomerGroup: args.CustomerGroup,
				Territory:     args.Territory,
			})
		},
		func(out *erp.Conversion) string {
			return fmt.Sprintf("Lead %s converted to customer %s", out.Lead, out.Customer)
		},
	))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "sales_pipeline",
		Description: "Summarize the sales pipeline: current leads, opportunities, and quotations with counts and value totals.",
	}, toolHandler(s, "sales_pipeline",
		func(ctx context.Context, _ salesPipelineInput) result.Result[erp.Pipeline] {
			return s.ops.SalesPipeline(ctx)
		},
		func(out *erp.Pipeline) string {
			return fmt.Sprintf("%d leads, %d opportunities, %d quotations",
				out.Summary.LeadCount, out.Summary.OpportunityCount, out.Summary.QuotationCount)
		},
	))
}
