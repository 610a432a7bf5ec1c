package extraction

import "context"

// Candidate is the schema-shaped record returned by the document model.
// Every leaf is a pointer: the wire distinguishes "not detected" from
// "detected as blank", and that distinction must survive into normalization.
type Candidate struct {
	MerchantName    *string `json:"merchantName"`
	MerchantAddress *string `json:"merchantAddress"`
	MerchantPhone   *string `json:"merchantPhone"`

	Date          *string `json:"date"`
	Time          *string `json:"time"`
	InvoiceNumber *string `json:"invoiceNumber"`

	ClientName      *string `json:"clientName"`
	ClientPassport  *string `json:"clientPassport"`
	ClientCountry   *string `json:"clientCountry"`
	ClientBirthDate *string `json:"clientBirthDate"`
	ServiceDate     *string `json:"serviceDate"`

	Items    []CandidateItem `json:"items"`
	Subtotal *float64        `json:"subtotal"`
	Tax      *float64        `json:"tax"`
	Discount *float64        `json:"discount"`
	Tip      *float64        `json:"tip"`
	Total    *float64        `json:"total"`
	Currency *string         `json:"currency"`

	BankDetails    *CandidateBankDetails    `json:"bankDetails"`
	MedicalDetails *CandidateMedicalDetails `json:"medicalDetails"`

	Category   *string  `json:"category"`
	Confidence *float64 `json:"confidence"`
	Summary    *string  `json:"summary"`
}

// CandidateItem is one extracted line item. unitPrice and totalPrice are
// read literally from the source document and are never derived from one
// another.
type CandidateItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
	TotalPrice  *float64 `json:"totalPrice"`
}

type CandidateBankDetails struct {
	BankName      *string `json:"bankName"`
	Location      *string `json:"location"`
	AccountName   *string `json:"accountName"`
	AccountNumber *string `json:"accountNumber"`
	IBAN          *string `json:"iban"`
	SWIFT         *string `json:"swift"`
}

type CandidateMedicalDetails struct {
	OurRefNo            *string `json:"ourRefNo"`
	YourRefNo           *string `json:"yourRefNo"`
	Hotel               *string `json:"hotel"`
	RoomNo              *string `json:"roomNo"`
	PatientPhone        *string `json:"patientPhone"`
	Insurance           *string `json:"insurance"`
	PolicyNumber        *string `json:"policyNumber"`
	AdmissionDate       *string `json:"admissionDate"`
	DischargeDate       *string `json:"dischargeDate"`
	TravelDates         *string `json:"travelDates"`
	Diagnosis           *string `json:"diagnosis"`
	Complaint           *string `json:"complaint"`
	History             *string `json:"history"`
	PhysicalExamination *string `json:"physicalExamination"`
	Treatment           *string `json:"treatment"`
	Prognosis           *string `json:"prognosis"`
}

// Extractor sends a document to an external document-understanding model
// and returns a schema-shaped candidate record. Implementations do not
// retry; retry policy belongs to the caller.
type Extractor interface {
	// Extract analyzes a receipt/invoice document and returns the candidate
	// record the model produced.
	Extract(ctx context.Context, documentData []byte, mimeType string) (*Candidate, error)
	// Close releases provider resources.
	Close() error
}
