package erp

// TableReplaced reports a completed child table replacement.
type TableReplaced struct {
	Doctype      string `json:"doctype"`
	Name         string `json:"name"`
	TableField   string `json:"table_field"`
	RowsReplaced int    `json:"rows_replaced"`
}

// Option is one normalized autocomplete suggestion. Label falls back to
// Value when the backend supplied no description.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UploadedFile reports a stored file.
type UploadedFile struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	Size     int    `json:"size"`
}

// CommentAdded echoes a recorded comment.
type CommentAdded struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// LeadCreated reports a new lead.
type LeadCreated struct {
	Name     string `json:"name"`
	LeadName string `json:"lead_name"`
	Status   string `json:"status"`
}

// QuotationCreated reports a new quotation. GrandTotal comes from the
// backend when it reports one, otherwise it is the sum of qty times rate
// over the submitted items.
type QuotationCreated struct {
	Name       string  `json:"name"`
	Party      string  `json:"party"`
	GrandTotal float64 `json:"grand_total"`
	ItemsCount int     `json:"items_count"`
}

// SalesOrderCreated reports a new sales order.
type SalesOrderCreated struct {
	Name         string  `json:"name"`
	Customer     string  `json:"customer"`
	DeliveryDate string  `json:"delivery_date"`
	GrandTotal   float64 `json:"grand_total"`
}

// Conversion reports a completed lead-to-customer conversion.
type Conversion struct {
	Customer string `json:"customer"`
	Lead     string `json:"lead"`
	Status   string `json:"status"`
}

// Item is one line of a quotation or sales order.
type Item struct {
	ItemCode string  `json:"item_code"`
	Qty      float64 `json:"qty"`
	Rate     float64 `json:"rate"`
}

// UploadParams describes a file upload. Content is standard base64;
// AttachToDoctype and AttachToName optionally attach the stored file to an
// existing document.
type UploadParams struct {
	Filename        string
	Content         string
	AttachToDoctype string
	AttachToName    string
	Private         bool
}

// LeadParams describes a new lead. Only LeadName is required.
type LeadParams struct {
	LeadName  string
	Email     string
	Mobile    string
	Company   string
	Source    string
	Territory string
}

// QuotationParams describes a new quotation. QuotationTo defaults to
// "Customer" when empty.
type QuotationParams struct {
	QuotationTo string
	Party       string
	Items       []Item
	ValidTill   string
}

// SalesOrderParams describes a new sales order.
type SalesOrderParams struct {
	Customer     string
	DeliveryDate string
	Items        []Item
}

// ConvertParams describes a lead conversion. The optional fields override
// the values carried over from the lead.
type ConvertParams struct {
	LeadName      string
	CustomerName  string
	CustomerGroup string
	Territory     string
}

// PipelineLead is the lead projection in the sales pipeline report.
type PipelineLead struct {
	Name     string `json:"name"`
	LeadName string `json:"lead_name"`
	Status   string `json:"status"`
}

// PipelineOpportunity is the opportunity projection. ExpectedClosing stays
// absent when the source record has no date.
type PipelineOpportunity struct {
	Name            string  `json:"name"`
	Party           string  `json:"party"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	ExpectedClosing string  `json:"expected_closing,omitempty"`
}

// PipelineQuotation is the quotation projection. TransactionDate stays
// absent when the source record has no date.
type PipelineQuotation struct {
	Name            string  `json:"name"`
	Customer        string  `json:"customer"`
	Status          string  `json:"status"`
	GrandTotal      float64 `json:"grand_total"`
	TransactionDate string  `json:"transaction_date,omitempty"`
}

// PipelineSummary aggregates the three stages.
type PipelineSummary struct {
	LeadCount        int     `json:"lead_count"`
	OpportunityCount int     `json:"opportunity_count"`
	QuotationCount   int     `json:"quotation_count"`
	OpportunityValue float64 `json:"opportunity_value"`
	QuotationValue   float64 `json:"quotation_value"`
}

// Pipeline is the composite sales pipeline report.
type Pipeline struct {
	Leads         []PipelineLead        `json:"leads"`
	Opportunities []PipelineOpportunity `json:"opportunities"`
	Quotations    []PipelineQuotation   `json:"quotations"`
	Summary       PipelineSummary       `json:"summary"`
}

// docString reads a string field from a decoded document, empty when
// absent or not a string.
func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

// docFloat reads a numeric field from a decoded document, zero when absent
// or not numeric.
func docFloat(doc map[string]any, key string) float64 {
	if v, ok := doc[key].(float64); ok {
		return v
	}
	return 0
}

// firstNonEmpty returns the first non-empty value, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// sumItems computes the quoted value of a line item list.
func sumItems(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Qty * item.Rate
	}
	return total
}
