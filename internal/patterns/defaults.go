package patterns

// DefaultTemplate is used for document types without a registered template.
const DefaultTemplate = "{type}_{date}"

const datePattern = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`

// DefaultSpec returns the built-in rule library. Classification groups are
// ordered specific-before-generic so that, for example, a change order
// response is not labelled as a plain change order.
func DefaultSpec() Spec {
	return Spec{
		Boundary: []GroupSpec{
			{Label: "payment_application", Patterns: []string{
				`PAYMENT APPLICATION\s*(?:NO|#)\.?\s*\d+`,
				`APPLICATION FOR PAYMENT`,
				`(?:AIA|FORM)\s*(?:DOCUMENT\s*)?G702`,
			}},
			{Label: "change_order", Patterns: []string{
				`CHANGE ORDER\s*(?:NO|#)\.?\s*\d+`,
				`(?:AIA|FORM)\s*(?:DOCUMENT\s*)?G701`,
			}},
			{Label: "email", Patterns: []string{
				`From:\s*.+@.+`,
				`^\s*Subject:\s*.+`,
				`Sent:\s*\w+,\s*\w+\s*\d+`,
			}},
			{Label: "letter", Patterns: []string{
				`\bDear\s+(?:Mr\.|Ms\.|Mrs\.|Dr\.|\w+)`,
				`^\s*Re:\s*.+`,
				`^\s*\w+,\s*\w+\s*\d{1,2},\s*\d{4}`,
			}},
			{Label: "rfi", Patterns: []string{
				`REQUEST FOR INFORMATION`,
				`\bRFI\s*(?:NO|#)\.?\s*\d+`,
			}},
			{Label: "contract", Patterns: []string{
				`CONTRACT\s*(?:AGREEMENT|FOR)`,
				`SUBCONTRACT\s*AGREEMENT`,
				`AGREEMENT\s*BETWEEN`,
			}},
			{Label: "inspection", Patterns: []string{
				`INSPECTION\s*REPORT`,
				`DAILY\s*(?:FIELD\s*)?REPORT`,
				`SITE\s*VISIT\s*REPORT`,
			}},
		},
		Classification: []GroupSpec{
			{Label: "email", Patterns: []string{
				`From:\s*.+@.+`,
				`To:\s*.+@.+`,
				`Sent:\s*\w+.*\d{4}`,
				`Message-ID:`,
			}},
			{Label: "payment_application", Patterns: []string{
				`APPLICATION FOR PAYMENT`,
				`SCHEDULE OF VALUES`,
				`(?:AIA|FORM)\s*G702`,
				`PAYMENT APPLICATION\s*(?:NO|#)\.?\s*\d+`,
				`APPLICATION AND CERTIFICATE FOR PAYMENT`,
			}},
			{Label: "change_order_response", Patterns: []string{
				`CHANGE ORDER.*RESPONSE`,
				`RESPONSE TO.*CHANGE ORDER`,
				`\bCO\b.*ACCEPTANCE`,
				`\bCO\b.*REJECTION`,
			}},
			{Label: "change_order", Patterns: []string{
				`CHANGE ORDER`,
				`MODIFICATION TO CONTRACT`,
				`(?:AIA|FORM)\s*G701`,
				`CONSTRUCTION CHANGE DIRECTIVE`,
			}},
			{Label: "rfi_response", Patterns: []string{
				`\bRFI\b.*RESPONSE`,
				`RESPONSE TO.*\bRFI\b`,
				`INFORMATION REQUEST.*RESPONSE`,
			}},
			{Label: "rfi", Patterns: []string{
				`REQUEST FOR INFORMATION`,
				`\bRFI\s*(?:NO|#)\.?\s*\d+`,
				`INFORMATION REQUEST`,
				`CLARIFICATION REQUEST`,
			}},
			{Label: "evidence_of_payment", Patterns: []string{
				`CHECK\s*(?:NO|#)\.?\s*\d+`,
				`PAYMENT RECEIPT`,
				`PROOF OF PAYMENT`,
				`BANK STATEMENT`,
				`WIRE TRANSFER`,
			}},
			{Label: "inspection_report", Patterns: []string{
				`INSPECTION REPORT`,
				`SITE VISIT REPORT`,
				`FIELD REPORT`,
				`PROGRESS INSPECTION`,
			}},
			{Label: "contract_document", Patterns: []string{
				`CONTRACT AGREEMENT`,
				`SUBCONTRACT`,
				`GENERAL CONDITIONS`,
				`SPECIAL CONDITIONS`,
				`CONSTRUCTION CONTRACT`,
			}},
			{Label: "plans_specifications", Patterns: []string{
				`DRAWING\s*(?:NO|#)`,
				`TECHNICAL SPECIFICATIONS`,
				`ARCHITECTURAL PLANS`,
				`BLUEPRINT`,
				`SPECIFICATION`,
			}},
			{Label: "letter", Patterns: []string{
				`\bDear\s+(?:Mr\.|Ms\.|Mrs\.|Dr\.)`,
				`\b(?:Sincerely|Respectfully|Regards),?\s*$`,
			}},
		},
		Extraction: []ExtractionSpec{
			{Label: "payment_application", Fields: []FieldSpec{
				{Name: "number", Patterns: []string{`(?:APPLICATION|PAY.*APP).*?(?:NO|#)\.?\s*(\d+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|THROUGH|FOR\s+PERIOD).*?` + datePattern}},
				{Name: "amount", Patterns: []string{`\$\s*([\d,]+\.?\d*)`}},
				{Name: "period", Patterns: []string{`PERIOD.*?` + datePattern}},
			}},
			{Label: "change_order", Fields: []FieldSpec{
				{Name: "number", Patterns: []string{`CHANGE\s*ORDER.*?(?:NO|#)\.?\s*(\d+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|DATED).*?` + datePattern}},
				{Name: "description", Patterns: []string{`(?:DESCRIPTION|REASON)[:\s]*([^\n]{10,50})`}},
				{Name: "amount", Patterns: []string{`\$\s*([\d,]+\.?\d*)`}},
			}},
			{Label: "email", Fields: []FieldSpec{
				{Name: "from", Patterns: []string{`From:\s*([^<\n@]+)(?:@|\s)`}},
				{Name: "subject", Patterns: []string{`Subject:\s*([^\n]{5,40})`}},
				{Name: "date", Patterns: []string{`(?:Sent|Date).*?` + datePattern}},
				{Name: "to", Patterns: []string{`To:\s*([^<\n@]+)(?:@|\s)`}},
			}},
			{Label: "rfi", Fields: []FieldSpec{
				{Name: "number", Patterns: []string{`RFI.*?(?:NO|#)\.?\s*(\d+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|DATED).*?` + datePattern}},
				{Name: "subject", Patterns: []string{`(?:SUBJECT|RE|REGARDING):\s*([^\n]{10,40})`}},
				{Name: "from", Patterns: []string{`(?:FROM|PREPARED BY):\s*([^\n]{5,30})`}},
			}},
			{Label: "rfi_response", Fields: []FieldSpec{
				{Name: "number", Patterns: []string{`RFI.*?(?:NO|#)\.?\s*(\d+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|DATED|RESPONSE\s+DATE).*?` + datePattern}},
				{Name: "subject", Patterns: []string{`(?:SUBJECT|RE|REGARDING):\s*([^\n]{10,40})`}},
			}},
			{Label: "contract_document", Fields: []FieldSpec{
				{Name: "date", Patterns: []string{`(?:DATE|DATED|EXECUTED).*?` + datePattern}},
				{Name: "description", Patterns: []string{`(?:CONTRACT|AGREEMENT)\s+(?:FOR|BETWEEN)?\s*([^\n]{10,40})`}},
				{Name: "parties", Patterns: []string{`BETWEEN\s+(.+?)\s+AND`}},
			}},
			{Label: "inspection_report", Fields: []FieldSpec{
				{Name: "date", Patterns: []string{`(?:INSPECTION\s+DATE|DATE\s+OF\s+VISIT).*?` + datePattern}},
				{Name: "description", Patterns: []string{`(?:INSPECTION\s+OF|LOCATION):\s*([^\n]{10,40})`}},
				{Name: "inspector", Patterns: []string{`(?:INSPECTOR|PREPARED\s+BY):\s*([^\n]{5,30})`}},
			}},
			{Label: "evidence_of_payment", Fields: []FieldSpec{
				{Name: "date", Patterns: []string{`(?:DATE|DATED|CHECK\s+DATE).*?` + datePattern}},
				{Name: "amount", Patterns: []string{`\$\s*([\d,]+\.?\d*)`}},
				{Name: "type", Patterns: []string{`\b(CHECK|WIRE|ACH|PAYMENT)\b`}},
				{Name: "number", Patterns: []string{`(?:CHECK|WIRE|REF).*?(?:NO|#)\.?\s*(\w+)`}},
			}},
			{Label: "change_order_response", Fields: []FieldSpec{
				{Name: "number", Patterns: []string{`(?:CHANGE\s*ORDER|\bCO\b).*?(?:NO|#)\.?\s*(\d+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|DATED|RESPONSE\s+DATE).*?` + datePattern}},
				{Name: "status", Patterns: []string{`\b(ACCEPT|REJECT|APPROVE|DENY)`}},
			}},
			{Label: "plans_specifications", Fields: []FieldSpec{
				{Name: "title", Patterns: []string{`(?:DRAWING|PLAN|SPEC).*?TITLE[:\s]*([^\n]{10,40})`}},
				{Name: "number", Patterns: []string{`(?:DRAWING|SHEET).*?(?:NO|#)\.?\s*([A-Z0-9\-]+)`}},
				{Name: "date", Patterns: []string{`(?:DATE|REVISION\s+DATE).*?` + datePattern}},
				{Name: "revision", Patterns: []string{`REVISION[:\s]*([A-Z0-9]+)`}},
			}},
			{Label: "letter", Fields: []FieldSpec{
				{Name: "date", Patterns: []string{`(?:DATE|DATED).*?` + datePattern}},
				{Name: "subject", Patterns: []string{`(?:RE|SUBJECT|REGARDING):\s*([^\n]{10,40})`}},
				{Name: "from", Patterns: []string{`(?:FROM|SINCERELY|SIGNED).*?([A-Z][a-z]+\s+[A-Z][a-z]+)`}},
			}},
		},
		Templates: map[string]string{
			"payment_application":   "PayApp_{number}_{date}",
			"change_order":          "CO_{number}_{date}_{description}",
			"email":                 "Email_{subject}_{from}_{date}",
			"rfi":                   "RFI_{number}_{subject}_{date}",
			"rfi_response":          "RFI_Response_{number}_{date}",
			"contract_document":     "Contract_{description}_{date}",
			"inspection_report":     "Inspection_{date}_{description}",
			"evidence_of_payment":   "Payment_{type}_{date}_{amount}",
			"change_order_response": "CO_Response_{number}_{date}",
			"plans_specifications":  "Plans_{title}_{date}",
			"letter":                "Letter_{date}_{subject}",
			"other":                 "Document_{date}",
		},
		DefaultTemplate: DefaultTemplate,
	}
}
