package domain

// PriceLink points at a price-comparison page for one medication.
type PriceLink struct {
	Medication string `json:"medication"`
	URL        string `json:"url"`
}

// Report is a generated patient-friendly visit report.
type Report struct {
	ID          string
	Summary     string
	Symptoms    []string
	Medications []string
	PriceLinks  []PriceLink
	Provider    string
	CreatedAt   string
	TTL         int64
}
