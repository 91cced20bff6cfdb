package model

// PIIKind identifies a category of personally identifiable information.
type PIIKind string

const (
	KindCNIC        PIIKind = "CNIC"
	KindPhone       PIIKind = "PHONE"
	KindEmail       PIIKind = "EMAIL"
	KindName        PIIKind = "NAME"
	KindAddress     PIIKind = "ADDRESS"
	KindBankAccount PIIKind = "BANK_ACCOUNT"
	KindCreditCard  PIIKind = "CREDIT_CARD"
	KindIPAddress   PIIKind = "IP_ADDRESS"
	KindURL         PIIKind = "URL"
	KindDateOfBirth PIIKind = "DATE_OF_BIRTH"
)

// AllPIIKinds returns every supported PII kind in detector declaration order.
func AllPIIKinds() []PIIKind {
	return []PIIKind{
		KindCNIC,
		KindPhone,
		KindEmail,
		KindBankAccount,
		KindCreditCard,
		KindIPAddress,
		KindName,
		KindAddress,
		KindURL,
		KindDateOfBirth,
	}
}

// PIIMatch is a single detected PII occurrence. Matches exist only for the
// lifetime of one redaction pass; RawValue is never persisted, logged, or
// serialized.
type PIIMatch struct {
	Kind     PIIKind
	Start    int
	End      int
	RawValue string
}

// RedactionSummary describes what was redacted from a query without carrying
// any of the redacted values. It is the only redaction artifact that may be
// persisted or logged.
type RedactionSummary struct {
	Redacted bool            `json:"redacted"`
	Count    int             `json:"count"`
	Types    map[PIIKind]int `json:"types,omitempty"`
}

// SanitizedQuery pairs the sanitized text with its redaction summary. Original
// is kept in-process only and is excluded from serialization; nothing
// downstream of redaction may receive it.
type SanitizedQuery struct {
	Original  string `json:"-"`
	Sanitized string `json:"sanitized"`
	Summary   RedactionSummary
}
