package domain

type Category string

const (
	CategoryIdentity  Category = "identity"
	CategoryFinancial Category = "financial"
	CategoryEducation Category = "education"
	CategoryUnknown   Category = "unknown"
)

type ClassificationMethod string

const (
	MethodPattern    ClassificationMethod = "pattern"
	MethodCapability ClassificationMethod = "capability"
)

// DocumentInfo describes a single scanned file. Category, confidence and
// method are written once by the classifier stage and read-only afterwards.
type DocumentInfo struct {
	Path       string               `json:"path"`
	Name       string               `json:"name"`
	Extension  string               `json:"extension"`
	Size       int64                `json:"size"`
	Category   Category             `json:"category"`
	Confidence float64              `json:"confidence"`
	Method     ClassificationMethod `json:"method,omitempty"`
}

// Classification is the response shape of the fallback classifier capability.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// DocumentBatch holds every scanned document, each in exactly one category
// list.
type DocumentBatch struct {
	Identity  []DocumentInfo
	Financial []DocumentInfo
	Education []DocumentInfo
	Unknown   []DocumentInfo
}

func (b *DocumentBatch) Add(doc DocumentInfo) {
	switch doc.Category {
	case CategoryIdentity:
		b.Identity = append(b.Identity, doc)
	case CategoryFinancial:
		b.Financial = append(b.Financial, doc)
	case CategoryEducation:
		b.Education = append(b.Education, doc)
	default:
		b.Unknown = append(b.Unknown, doc)
	}
}

func (b *DocumentBatch) CountByCategory() map[string]int {
	return map[string]int{
		string(CategoryIdentity):  len(b.Identity),
		string(CategoryFinancial): len(b.Financial),
		string(CategoryEducation): len(b.Education),
		string(CategoryUnknown):   len(b.Unknown),
	}
}

// MissingCategories lists the recommended categories that ended up with no
// documents at all.
func (b *DocumentBatch) MissingCategories() []Category {
	var missing []Category
	if len(b.Identity) == 0 {
		missing = append(missing, CategoryIdentity)
	}
	if len(b.Financial) == 0 {
		missing = append(missing, CategoryFinancial)
	}
	if len(b.Education) == 0 {
		missing = append(missing, CategoryEducation)
	}
	return missing
}
