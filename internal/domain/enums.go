package domain

// DocumentType is the label assigned to a classified section.
type DocumentType string

const (
	DocTypeEmail               DocumentType = "email"
	DocTypeLetter              DocumentType = "letter"
	DocTypePaymentApplication  DocumentType = "payment_application"
	DocTypeEvidenceOfPayment   DocumentType = "evidence_of_payment"
	DocTypeChangeOrder         DocumentType = "change_order"
	DocTypeChangeOrderResponse DocumentType = "change_order_response"
	DocTypeRFI                 DocumentType = "rfi"
	DocTypeRFIResponse         DocumentType = "rfi_response"
	DocTypeInspectionReport    DocumentType = "inspection_report"
	DocTypeContractDocument    DocumentType = "contract_document"
	DocTypePlansSpecifications DocumentType = "plans_specifications"
	DocTypeOther               DocumentType = "other"
)

// DocumentTypes is the fixed label enumeration, in declaration order.
// DocTypeOther is always last and is the reserved fallback label.
var DocumentTypes = []DocumentType{
	DocTypeEmail,
	DocTypeLetter,
	DocTypePaymentApplication,
	DocTypeEvidenceOfPayment,
	DocTypeChangeOrder,
	DocTypeChangeOrderResponse,
	DocTypeRFI,
	DocTypeRFIResponse,
	DocTypeInspectionReport,
	DocTypeContractDocument,
	DocTypePlansSpecifications,
	DocTypeOther,
}

// IsKnownDocumentType reports whether t belongs to the fixed enumeration.
func IsKnownDocumentType(t string) bool {
	for _, dt := range DocumentTypes {
		if string(dt) == t {
			return true
		}
	}
	return false
}

// ClassificationMethod records how a section's type was decided.
type ClassificationMethod string

const (
	MethodRuleBased ClassificationMethod = "rule_based"
	MethodAPI       ClassificationMethod = "api"
	MethodFallback  ClassificationMethod = "fallback"
)

// CollisionStrategy controls what an export sink does when a target name is taken.
type CollisionStrategy string

const (
	CollisionRename    CollisionStrategy = "rename"
	CollisionSkip      CollisionStrategy = "skip"
	CollisionOverwrite CollisionStrategy = "overwrite"
)

// ManifestFormat selects the manifest encoding for a split run.
type ManifestFormat string

const (
	ManifestCSV  ManifestFormat = "csv"
	ManifestXLSX ManifestFormat = "xlsx"
)
