package receipt

// Record is the canonical, normalized receipt/invoice record. Exactly one
// Record is live at a time; it is created atomically by Normalize after a
// successful extraction and mutated only by explicit user edits.
//
// Required fields are plain values. Optional fields are pointers whose nil
// value is the canonical absent marker, so presentation can distinguish
// "not detected" from "detected as blank". The JSON form of this struct is
// the interchange contract for the clipboard export.
type Record struct {
	MerchantName    string  `json:"merchantName"`
	MerchantAddress *string `json:"merchantAddress"`
	MerchantPhone   *string `json:"merchantPhone"`

	Date          string  `json:"date"` // YYYY-MM-DD
	Time          *string `json:"time"`
	InvoiceNumber string  `json:"invoiceNumber"` // derived from Date when absent

	ClientName      *string `json:"clientName"`
	ClientPassport  *string `json:"clientPassport"`
	ClientCountry   *string `json:"clientCountry"`
	ClientBirthDate *string `json:"clientBirthDate"`
	ServiceDate     *string `json:"serviceDate"`

	Items    []LineItem `json:"items"` // print order; may be empty, never nil
	Subtotal float64    `json:"subtotal"`
	Tax      float64    `json:"tax"`
	Discount *float64   `json:"discount"` // absolute magnitude, subtracted
	Tip      *float64   `json:"tip"`      // absolute magnitude, added
	Total    float64    `json:"total"`
	Currency string     `json:"currency"` // ISO 4217

	BankDetails    *BankDetails    `json:"bankDetails"`    // always non-nil, internally nullable
	MedicalDetails *MedicalDetails `json:"medicalDetails"` // always non-nil, internally nullable

	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"` // [0,1]
	Summary    *string `json:"summary"`
}

// LineItem is one extracted line item. UnitPrice and TotalPrice were read
// independently from the source and are never recomputed from one another,
// even when they look inconsistent; the document is the audit truth.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// BankDetails holds wire-transfer details typically found in invoice footers.
type BankDetails struct {
	BankName      *string `json:"bankName"`
	Location      *string `json:"location"`
	AccountName   *string `json:"accountName"`
	AccountNumber *string `json:"accountNumber"`
	IBAN          *string `json:"iban"`
	SWIFT         *string `json:"swift"`
}

// HasAny reports whether any bank leaf was detected, which decides whether
// the payment block renders.
func (b *BankDetails) HasAny() bool {
	if b == nil {
		return false
	}
	for _, s := range []*string{b.BankName, b.Location, b.AccountName, b.AccountNumber, b.IBAN, b.SWIFT} {
		if s != nil && *s != "" {
			return true
		}
	}
	return false
}

// MedicalDetails holds the medical-document extension fields.
type MedicalDetails struct {
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

// HasNarrative reports whether any free-text clinical field is present, which
// decides whether the medical report body renders at all.
func (m *MedicalDetails) HasNarrative() bool {
	if m == nil {
		return false
	}
	for _, s := range []*string{m.Diagnosis, m.Complaint, m.History, m.PhysicalExamination, m.Treatment, m.Prognosis} {
		if s != nil && *s != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record, so snapshots handed to the
// renderer can never alias live state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r

	out.Items = make([]LineItem, len(r.Items))
	copy(out.Items, r.Items)

	out.MerchantAddress = cloneString(r.MerchantAddress)
	out.MerchantPhone = cloneString(r.MerchantPhone)
	out.Time = cloneString(r.Time)
	out.ClientName = cloneString(r.ClientName)
	out.ClientPassport = cloneString(r.ClientPassport)
	out.ClientCountry = cloneString(r.ClientCountry)
	out.ClientBirthDate = cloneString(r.ClientBirthDate)
	out.ServiceDate = cloneString(r.ServiceDate)
	out.Discount = cloneFloat(r.Discount)
	out.Tip = cloneFloat(r.Tip)
	out.Summary = cloneString(r.Summary)

	if r.BankDetails != nil {
		b := BankDetails{
			BankName:      cloneString(r.BankDetails.BankName),
			Location:      cloneString(r.BankDetails.Location),
			AccountName:   cloneString(r.BankDetails.AccountName),
			AccountNumber: cloneString(r.BankDetails.AccountNumber),
			IBAN:          cloneString(r.BankDetails.IBAN),
			SWIFT:         cloneString(r.BankDetails.SWIFT),
		}
		out.BankDetails = &b
	}
	if r.MedicalDetails != nil {
		m := MedicalDetails{
			OurRefNo:            cloneString(r.MedicalDetails.OurRefNo),
			YourRefNo:           cloneString(r.MedicalDetails.YourRefNo),
			Hotel:               cloneString(r.MedicalDetails.Hotel),
			RoomNo:              cloneString(r.MedicalDetails.RoomNo),
			PatientPhone:        cloneString(r.MedicalDetails.PatientPhone),
			Insurance:           cloneString(r.MedicalDetails.Insurance),
			PolicyNumber:        cloneString(r.MedicalDetails.PolicyNumber),
			AdmissionDate:       cloneString(r.MedicalDetails.AdmissionDate),
			DischargeDate:       cloneString(r.MedicalDetails.DischargeDate),
			TravelDates:         cloneString(r.MedicalDetails.TravelDates),
			Diagnosis:           cloneString(r.MedicalDetails.Diagnosis),
			Complaint:           cloneString(r.MedicalDetails.Complaint),
			History:             cloneString(r.MedicalDetails.History),
			PhysicalExamination: cloneString(r.MedicalDetails.PhysicalExamination),
			Treatment:           cloneString(r.MedicalDetails.Treatment),
			Prognosis:           cloneString(r.MedicalDetails.Prognosis),
		}
		out.MedicalDetails = &m
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
