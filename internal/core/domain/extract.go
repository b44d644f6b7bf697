package domain

// Raw responses of the extraction capabilities, one closed shape per
// category. A nil pointer on the pipeline context means the category was not
// dispatched or its dispatch failed; the failure text lives next to it.

type IdentityExtract struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DateOfBirth    string  `json:"date_of_birth"` // ISO YYYY-MM-DD
	Sex            string  `json:"sex"`
	PassportNumber string  `json:"passport_number"`
	IssuingCountry string  `json:"issuing_country"`
	IssueDate      string  `json:"issue_date"`
	ExpiryDate     string  `json:"expiry_date"`
	MRZLine1       string  `json:"mrz_line1"`
	MRZLine2       string  `json:"mrz_line2"`
	Confidence     float64 `json:"confidence"`
}

type FinancialExtract struct {
	DocumentType   string  `json:"document_type"`
	AccountHolder  string  `json:"account_holder"`
	BankName       string  `json:"bank_name"`
	Currency       string  `json:"currency"`
	AmountOriginal float64 `json:"amount_original"`
	AmountEUR      float64 `json:"amount_eur"`
	Decision       string  `json:"decision"` // WORTHY, NOT_WORTHY or empty
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"`
}

type EducationExtract struct {
	StudentName          string  `json:"student_name"`
	StudentDateOfBirth   string  `json:"student_date_of_birth"`
	HighestQualification string  `json:"highest_qualification"`
	Institution          string  `json:"institution"`
	Country              string  `json:"country"`
	FinalGrade           string  `json:"final_grade"`
	FrenchGrade          float64 `json:"french_equivalent_grade_0_20"`
	SemesterStatus       string  `json:"semester_status"` // VALID, INVALID or empty
	Notes                string  `json:"notes"`
	Confidence           float64 `json:"confidence"`
}
