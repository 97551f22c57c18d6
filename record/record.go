package record

type RecordType string

const (
	TypeUnknown          RecordType = ""
	TypePrescription     RecordType = "prescription"
	TypeDischargeSummary RecordType = "discharge summary"
	TypeProgressNote     RecordType = "progress note"
	TypeDiagnosticReport RecordType = "diagnostic report"
)

// ClinicalRecord is the structured output of one document extraction.
// It is immutable once produced; only the medication list feeds into
// the per-patient lifecycle state.
type ClinicalRecord struct {
	Type         RecordType   `json:"type_of_record"`
	UploadDate   string       `json:"date_of_upload"`
	Medications  []Medication `json:"medications"`
	Vaccinations []string     `json:"vaccinations"`
	Allergies    []string     `json:"allergies"`
	Conditions   []string     `json:"medical_conditions"`
	Tests        []string     `json:"tests"`
	Summary      string       `json:"summary"`
}

// Empty reports whether nothing was extracted.
func (r ClinicalRecord) Empty() bool {
	return r.Type == TypeUnknown &&
		len(r.Medications) == 0 &&
		len(r.Vaccinations) == 0 &&
		len(r.Allergies) == 0 &&
		len(r.Conditions) == 0 &&
		len(r.Tests) == 0 &&
		len(r.Summary) == 0
}

// Medication carries the fields as extracted from the document.
// Frequency and Duration are free text; EndDate, if present, is
// whatever date string the model produced.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	EndDate   string `json:"end_date"`
}
