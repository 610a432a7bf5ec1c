package receipt

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/reformai/receipt-reform/internal/extraction"
)

// NormalizeError reports a candidate that cannot be turned into a renderable
// record because a required field is missing or non-coercible.
type NormalizeError struct {
	Field  string
	Reason string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalizing %s: %s", e.Field, e.Reason)
}

// dateFormats is the coercion ladder for dates the model failed to emit as
// YYYY-MM-DD.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// CoerceDate normalizes a date string to YYYY-MM-DD. The second return is
// false when no known format matches.
func CoerceDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Normalize coerces a candidate into the canonical record. It is total over
// optional fields: anything the model omitted becomes the canonical absent
// marker. It fails only when a required field is missing or non-coercible,
// since a record without a merchant, date or valid totals cannot be rendered
// meaningfully.
//
// Line-item unitPrice and totalPrice pass through untouched and are never
// recomputed from one another, even when they look inconsistent.
func Normalize(c *extraction.Candidate) (*Record, error) {
	if c == nil {
		return nil, &NormalizeError{Field: "record", Reason: "no candidate"}
	}

	merchant := strings.TrimSpace(strVal(c.MerchantName))
	if merchant == "" {
		return nil, &NormalizeError{Field: "merchantName", Reason: "missing or empty"}
	}

	rawDate := strVal(c.Date)
	date, ok := CoerceDate(rawDate)
	if !ok {
		return nil, &NormalizeError{Field: "date", Reason: fmt.Sprintf("%q is not a recognizable calendar date", rawDate)}
	}

	subtotal, err := requiredNumber("subtotal", c.Subtotal)
	if err != nil {
		return nil, err
	}
	tax, err := requiredNumber("tax", c.Tax)
	if err != nil {
		return nil, err
	}
	total, err := requiredNumber("total", c.Total)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(strVal(c.Currency)))
	if currency == "" {
		return nil, &NormalizeError{Field: "currency", Reason: "missing or empty"}
	}

	category := strings.TrimSpace(strVal(c.Category))
	if category == "" {
		return nil, &NormalizeError{Field: "category", Reason: "missing or empty"}
	}

	r := &Record{
		MerchantName:    merchant,
		MerchantAddress: c.MerchantAddress,
		MerchantPhone:   c.MerchantPhone,
		Date:            date,
		Time:            c.Time,
		ClientName:      c.ClientName,
		ClientPassport:  c.ClientPassport,
		ClientCountry:   c.ClientCountry,
		ClientBirthDate: c.ClientBirthDate,
		ServiceDate:     c.ServiceDate,
		Items:           normalizeItems(c.Items),
		Subtotal:        subtotal,
		Tax:             tax,
		Discount:        absoluteMagnitude(c.Discount),
		Tip:             absoluteMagnitude(c.Tip),
		Total:           total,
		Currency:        currency,
		BankDetails:     normalizeBank(c.BankDetails),
		MedicalDetails:  normalizeMedical(c.MedicalDetails),
		Category:        category,
		Confidence:      clampConfidence(c.Confidence),
		Summary:         c.Summary,
	}

	// Structural default: an absent invoice number derives from the date so
	// the exported document always carries one.
	if num := strings.TrimSpace(strVal(c.InvoiceNumber)); num != "" {
		r.InvoiceNumber = num
	} else {
		r.InvoiceNumber = "INV-" + strings.ReplaceAll(date, "-", "")
	}

	return r, nil
}

func normalizeItems(items []extraction.CandidateItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		quantity := numVal(item.Quantity)
		if quantity < 0 {
			quantity = 0
		}
		out = append(out, LineItem{
			Description: strings.TrimSpace(strVal(item.Description)),
			Quantity:    quantity,
			UnitPrice:   numVal(item.UnitPrice),
			TotalPrice:  numVal(item.TotalPrice),
		})
	}
	return out
}

// normalizeBank materializes the container even when the model omitted it,
// so rendering only needs null checks on the leaves.
func normalizeBank(b *extraction.CandidateBankDetails) *BankDetails {
	if b == nil {
		return &BankDetails{}
	}
	return &BankDetails{
		BankName:      b.BankName,
		Location:      b.Location,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		IBAN:          b.IBAN,
		SWIFT:         b.SWIFT,
	}
}

func normalizeMedical(m *extraction.CandidateMedicalDetails) *MedicalDetails {
	if m == nil {
		return &MedicalDetails{}
	}
	return &MedicalDetails{
		OurRefNo:            m.OurRefNo,
		YourRefNo:           m.YourRefNo,
		Hotel:               m.Hotel,
		RoomNo:              m.RoomNo,
		PatientPhone:        m.PatientPhone,
		Insurance:           m.Insurance,
		PolicyNumber:        m.PolicyNumber,
		AdmissionDate:       m.AdmissionDate,
		DischargeDate:       m.DischargeDate,
		TravelDates:         m.TravelDates,
		Diagnosis:           m.Diagnosis,
		Complaint:           m.Complaint,
		History:             m.History,
		PhysicalExamination: m.PhysicalExamination,
		Treatment:           m.Treatment,
		Prognosis:           m.Prognosis,
	}
}

func requiredNumber(field string, p *float64) (float64, error) {
	if p == nil {
		return 0, &NormalizeError{Field: field, Reason: "missing"}
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, &NormalizeError{Field: field, Reason: "not a finite number"}
	}
	return *p, nil
}

// absoluteMagnitude clamps optional adjustments (discount, tip) to
// non-negative magnitudes; the sign convention is carried by the field, not
// the value. Non-finite values become absent.
func absoluteMagnitude(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := math.Abs(*p)
	return &v
}

func clampConfidence(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, *p))
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func numVal(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}
