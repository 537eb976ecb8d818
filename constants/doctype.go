package constants

// DocumentType is the classifier output for an ingested document.
type DocumentType string

const (
	Invoice   DocumentType = "invoice"
	Statement DocumentType = "statement"
	Receipt   DocumentType = "receipt"
	Form      DocumentType = "form"
	Unknown   DocumentType = "unknown"
)

// Transaction categories and synthetic vendors assigned by the materializer.
const (
	CategoryLineItem     = "Invoice Line Item"
	CategoryInvoiceTotal = "Invoice Total"
	CategoryBanking      = "Banking"
	VendorBank           = "Bank Transaction"
	VendorUnknown        = "Unknown"
)
