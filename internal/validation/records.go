package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"seafoodpulse/pkg/contracts/domain"
)

// RecordIssue describes one market record that failed validation
type RecordIssue struct {
	Index  int    `json:"index"`
	Market string `json:"market"`
	Field  string `json:"field"`
	Rule   string `json:"rule"`
}

func (i RecordIssue) String() string {
	return fmt.Sprintf("record %d (%s): %s failed %s", i.Index, i.Market, i.Field, i.Rule)
}

// RecordValidator applies the struct tags of domain.MarketRecord
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator creates a record validator
func NewRecordValidator() *RecordValidator {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	return &RecordValidator{validate: v}
}

// Validate returns one issue per failing field across records
func (r *RecordValidator) Validate(records []domain.MarketRecord) []RecordIssue {
	var issues []RecordIssue
	for i := range records {
		err := r.validate.Struct(records[i])
		if err == nil {
			continue
		}
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			issues = append(issues, RecordIssue{Index: i, Market: records[i].Market, Rule: err.Error()})
			continue
		}
		for _, fe := range verrs {
			issues = append(issues, RecordIssue{
				Index:  i,
				Market: records[i].Market,
				Field:  fe.Field(),
				Rule:   fe.Tag(),
			})
		}
	}
	return issues
}
