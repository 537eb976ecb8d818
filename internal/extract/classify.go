package extract

import (
	"strings"

	"github.com/docsight/docsight/constants"
)

// Keyword sets checked in declaration order; first set with any hit wins.
var classifierRules = []struct {
	docType  constants.DocumentType
	keywords []string
}{
	{constants.Invoice, []string{"invoice", "bill to", "amount due", "invoice number"}},
	{constants.Statement, []string{"statement", "account balance", "transaction", "deposit", "withdrawal"}},
	{constants.Receipt, []string{"receipt", "thank you", "purchase", "total paid"}},
	{constants.Form, []string{"form", "application", "please complete", "signature"}},
}

// Classify assigns a document type from keyword matches. Ties are impossible:
// the first matching category in priority order (invoice first) wins.
func Classify(text string) constants.DocumentType {
	lower := strings.ToLower(text)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.docType
			}
		}
	}
	return constants.Unknown
}
