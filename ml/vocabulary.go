package ml

import "sort"

// CategoricalField describes one closed-vocabulary input and how it is one-hot encoded.
// Options keeps the order shown to users; Baseline is the category whose column is
// dropped, so it is encoded as all zeros for the field.
type CategoricalField struct {
	Name     string
	Label    string
	Options  []string
	Baseline string

	columns []string
	index   map[string]int
}

// Columns returns the field's one-hot column names in encoding order.
func (f *CategoricalField) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Has reports whether value belongs to the field's vocabulary.
func (f *CategoricalField) Has(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

// ColumnFor returns the one-hot column for value, or false for the baseline
// and for values outside the vocabulary.
func (f *CategoricalField) ColumnFor(value string) (string, bool) {
	idx, ok := f.index[value]
	if !ok {
		return "", false
	}
	return f.columns[idx], true
}

// NumericField describes one pass-through numeric input.
type NumericField struct {
	Column  string
	Label   string
	Min     string
	Max     string
	Step    string
	Default string
}

var numericFields = []NumericField{
	{Column: "age", Label: "Age", Min: "18", Max: "100", Step: "1", Default: "18"},
	{Column: "duration", Label: "Duration of Last Contact (seconds)", Min: "0", Step: "1", Default: "0"},
	{Column: "campaign", Label: "Number of Contacts During Campaign", Min: "0", Step: "1", Default: "0"},
	{Column: "pdays", Label: "Days Since Last Contact", Min: "0", Step: "1", Default: "999"},
	{Column: "previous", Label: "Number of Contacts Before Campaign", Min: "0", Step: "1", Default: "0"},
	{Column: "emp.var.rate", Label: "Employment Variation Rate", Step: "0.01", Default: "0.00"},
	{Column: "cons.price.idx", Label: "Consumer Price Index", Step: "0.01", Default: "0.00"},
	{Column: "cons.conf.idx", Label: "Consumer Confidence Index", Step: "0.1", Default: "0.00"},
	{Column: "euribor3m", Label: "Euribor 3 Month Rate", Step: "0.001", Default: "0.000"},
	{Column: "nr.employed", Label: "Number of Employees", Step: "1", Default: "0"},
}

// Baselines follow drop-first encoding over alphabetically sorted categories,
// which is how the classifier's training columns were produced.
var categoricalFields = []*CategoricalField{
	{
		Name:  "job",
		Label: "Job",
		Options: []string{
			"admin.", "blue-collar", "entrepreneur", "management", "retired",
			"self-employed", "services", "student", "technician", "unemployed",
			"unknown",
		},
		Baseline: "admin.",
	},
	{
		Name:     "marital",
		Label:    "Marital Status",
		Options:  []string{"divorced", "married", "single", "unknown"},
		Baseline: "divorced",
	},
	{
		Name:  "education",
		Label: "Education Level",
		Options: []string{
			"basic.4y", "basic.6y", "basic.9y", "high.school", "illiterate",
			"professional.course", "university.degree", "unknown",
		},
		Baseline: "basic.4y",
	},
	{Name: "default", Label: "Credit Default?", Options: []string{"no", "yes", "unknown"}, Baseline: "no"},
	{Name: "housing", Label: "Housing Loan?", Options: []string{"no", "yes", "unknown"}, Baseline: "no"},
	{Name: "loan", Label: "Personal Loan?", Options: []string{"no", "yes", "unknown"}, Baseline: "no"},
	{Name: "contact", Label: "Contact Type", Options: []string{"cellular", "telephone"}, Baseline: "cellular"},
	{
		Name:  "month",
		Label: "Month of Contact",
		Options: []string{
			"jan", "feb", "mar", "apr", "may", "jun",
			"jul", "aug", "sep", "oct", "nov", "dec",
		},
		Baseline: "apr",
	},
	{
		Name:     "day_of_week",
		Label:    "Day of the Week",
		Options:  []string{"mon", "tue", "wed", "thu", "fri"},
		Baseline: "fri",
	},
	{
		Name:     "poutcome",
		Label:    "Outcome of Previous Campaign",
		Options:  []string{"nonexistent", "failure", "success"},
		Baseline: "failure",
	},
}

var (
	columns     []string
	columnIndex map[string]int
)

func init() {
	for _, field := range numericFields {
		columns = append(columns, field.Column)
	}
	for _, field := range categoricalFields {
		if !field.Has(field.Baseline) {
			panic("ml: baseline " + field.Baseline + " not in vocabulary of " + field.Name)
		}
		categories := make([]string, 0, len(field.Options)-1)
		for _, option := range field.Options {
			if option != field.Baseline {
				categories = append(categories, option)
			}
		}
		sort.Strings(categories)

		field.index = make(map[string]int, len(categories))
		field.columns = make([]string, len(categories))
		for i, category := range categories {
			field.index[category] = i
			field.columns[i] = field.Name + "_" + category
		}
		columns = append(columns, field.columns...)
	}

	columnIndex = make(map[string]int, len(columns))
	for i, column := range columns {
		columnIndex[column] = i
	}
}

// Columns returns the encoded row layout the classifier is fitted on.
func Columns() []string {
	return append([]string(nil), columns...)
}

// NumericFields returns the numeric inputs in column order.
func NumericFields() []NumericField {
	return append([]NumericField(nil), numericFields...)
}

// CategoricalFields returns the categorical inputs in encoding order.
func CategoricalFields() []*CategoricalField {
	return append([]*CategoricalField(nil), categoricalFields...)
}

// Field looks up a categorical field by column prefix.
func Field(name string) (*CategoricalField, bool) {
	for _, field := range categoricalFields {
		if field.Name == name {
			return field, true
		}
	}
	return nil, false
}
