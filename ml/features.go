package ml

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Record is one customer as entered in the prediction form.
type Record struct {
	Age          float64 `json:"age" validate:"gte=18,lte=100"`
	Duration     float64 `json:"duration" validate:"gte=0"`
	Campaign     float64 `json:"campaign" validate:"gte=0"`
	PDays        float64 `json:"pdays" validate:"gte=0"`
	Previous     float64 `json:"previous" validate:"gte=0"`
	EmpVarRate   float64 `json:"emp.var.rate"`
	ConsPriceIdx float64 `json:"cons.price.idx"`
	ConsConfIdx  float64 `json:"cons.conf.idx"`
	Euribor3m    float64 `json:"euribor3m"`
	NrEmployed   float64 `json:"nr.employed"`

	Job       string `json:"job" validate:"required"`
	Marital   string `json:"marital" validate:"required"`
	Education string `json:"education" validate:"required"`
	Default   string `json:"default" validate:"required"`
	Housing   string `json:"housing" validate:"required"`
	Loan      string `json:"loan" validate:"required"`
	Contact   string `json:"contact" validate:"required"`
	Month     string `json:"month" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	POutcome  string `json:"poutcome" validate:"required"`
}

// NeverContacted is the pdays sentinel for clients not reached by a previous campaign.
const NeverContacted = 999

func (r Record) numeric() []float64 {
	return []float64{
		r.Age,
		r.Duration,
		r.Campaign,
		r.PDays,
		r.Previous,
		r.EmpVarRate,
		r.ConsPriceIdx,
		r.ConsConfIdx,
		r.Euribor3m,
		r.NrEmployed,
	}
}

// Category returns the record's value for a categorical field.
func (r Record) Category(field string) (string, bool) {
	switch field {
	case "job":
		return r.Job, true
	case "marital":
		return r.Marital, true
	case "education":
		return r.Education, true
	case "default":
		return r.Default, true
	case "housing":
		return r.Housing, true
	case "loan":
		return r.Loan, true
	case "contact":
		return r.Contact, true
	case "month":
		return r.Month, true
	case "day_of_week":
		return r.DayOfWeek, true
	case "poutcome":
		return r.POutcome, true
	default:
		return "", false
	}
}

// Row is an encoded feature row. Columns always equals Columns().
type Row struct {
	Columns []string
	Values  []float64
}

// Get returns the value of a named column.
func (r Row) Get(column string) (float64, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Columns))
	for i, name := range r.Columns {
		m[name] = r.Values[i]
	}
	return m
}

// Encode maps a record to the classifier's feature row. Numeric fields pass
// through unchanged; each categorical field sets at most one indicator column.
func Encode(record Record) (Row, error) {
	values := make([]float64, len(columns))
	copy(values, record.numeric())

	for _, field := range categoricalFields {
		value, _ := record.Category(field.Name)
		if !field.Has(value) {
			return Row{}, &InvalidCategoryError{Field: field.Name, Value: value}
		}
		if value == field.Baseline {
			continue
		}
		column, _ := field.ColumnFor(value)
		values[columnIndex[column]] = 1
	}

	return Row{Columns: Columns(), Values: values}, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRecord checks the form-level bounds of a record.
func ValidateRecord(record Record) error {
	return describe(validate.Struct(record))
}

// Submission is a record as received over the JSON API. Numbers are pointers so
// an absent or null value is told apart from zero; none of them is defaulted.
type Submission struct {
	Age          *float64 `json:"age" validate:"required"`
	Duration     *float64 `json:"duration" validate:"required"`
	Campaign     *float64 `json:"campaign" validate:"required"`
	PDays        *float64 `json:"pdays" validate:"required"`
	Previous     *float64 `json:"previous" validate:"required"`
	EmpVarRate   *float64 `json:"emp.var.rate" validate:"required"`
	ConsPriceIdx *float64 `json:"cons.price.idx" validate:"required"`
	ConsConfIdx  *float64 `json:"cons.conf.idx" validate:"required"`
	Euribor3m    *float64 `json:"euribor3m" validate:"required"`
	NrEmployed   *float64 `json:"nr.employed" validate:"required"`

	Job       string `json:"job"`
	Marital   string `json:"marital"`
	Education string `json:"education"`
	Default   string `json:"default"`
	Housing   string `json:"housing"`
	Loan      string `json:"loan"`
	Contact   string `json:"contact"`
	Month     string `json:"month"`
	DayOfWeek string `json:"day_of_week"`
	POutcome  string `json:"poutcome"`
}

// Record checks that every number is present and returns the plain record.
// Bounds and categories are left to ValidateRecord and Encode.
func (s Submission) Record() (Record, error) {
	if err := describe(validate.Struct(s)); err != nil {
		return Record{}, err
	}
	return Record{
		Age:          *s.Age,
		Duration:     *s.Duration,
		Campaign:     *s.Campaign,
		PDays:        *s.PDays,
		Previous:     *s.Previous,
		EmpVarRate:   *s.EmpVarRate,
		ConsPriceIdx: *s.ConsPriceIdx,
		ConsConfIdx:  *s.ConsConfIdx,
		Euribor3m:    *s.Euribor3m,
		NrEmployed:   *s.NrEmployed,

		Job:       s.Job,
		Marital:   s.Marital,
		Education: s.Education,
		Default:   s.Default,
		Housing:   s.Housing,
		Loan:      s.Loan,
		Contact:   s.Contact,
		Month:     s.Month,
		DayOfWeek: s.DayOfWeek,
		POutcome:  s.POutcome,
	}, nil
}

// describe turns the first validator failure into a user-facing message.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "gte":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
