package http

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"termdeposit/ml"
)

type formSection struct {
	Title  string
	Fields []string
}

var formSections = []formSection{
	{Title: "Personal Information", Fields: []string{"age", "job", "marital", "education"}},
	{Title: "Financial Status", Fields: []string{"default", "housing", "loan"}},
	{Title: "Contact Information", Fields: []string{"contact", "month", "day_of_week"}},
	{Title: "Campaign Details", Fields: []string{"duration", "campaign", "pdays", "previous"}},
	{Title: "Previous Campaign Outcome", Fields: []string{"poutcome"}},
	{Title: "Economic Indicators", Fields: []string{"emp.var.rate", "cons.price.idx", "cons.conf.idx", "euribor3m", "nr.employed"}},
}

type option struct {
	Value string
	Label string
}

type inputSpec struct {
	Name    string
	Label   string
	Select  bool
	Min     string
	Max     string
	Step    string
	Default string
	Options []option
}

// formLayout is the static form description built from the encoder tables,
// so the dropdowns offer exactly the encoder's vocabulary.
type formLayout struct {
	sections [][]inputSpec
	titles   []string
}

func newFormLayout() formLayout {
	numeric := make(map[string]ml.NumericField)
	for _, field := range ml.NumericFields() {
		numeric[field.Column] = field
	}
	caser := cases.Title(language.English)
	labels := strings.NewReplacer(".", " ", "_", " ")

	var layout formLayout
	for _, section := range formSections {
		specs := make([]inputSpec, 0, len(section.Fields))
		for _, name := range section.Fields {
			if field, ok := numeric[name]; ok {
				specs = append(specs, inputSpec{
					Name:    field.Column,
					Label:   field.Label,
					Min:     field.Min,
					Max:     field.Max,
					Step:    field.Step,
					Default: field.Default,
				})
				continue
			}
			field, ok := ml.Field(name)
			if !ok {
				panic("http: unknown form field " + name)
			}
			spec := inputSpec{Name: field.Name, Label: field.Label, Select: true, Default: field.Options[0]}
			for _, value := range field.Options {
				spec.Options = append(spec.Options, option{
					Value: value,
					Label: caser.String(strings.TrimSpace(labels.Replace(value))),
				})
			}
			specs = append(specs, spec)
		}
		layout.sections = append(layout.sections, specs)
		layout.titles = append(layout.titles, section.Title)
	}
	return layout
}

type inputView struct {
	inputSpec
	Value string
}

type sectionView struct {
	Title  string
	Inputs []inputView
}

type resultView struct {
	Subscribed  bool
	Probability float64
}

type pageView struct {
	UIConfig
	Sections []sectionView
	Result   *resultView
	Error    string
}

func (l formLayout) view(values url.Values) []sectionView {
	sections := make([]sectionView, len(l.sections))
	for i, specs := range l.sections {
		inputs := make([]inputView, len(specs))
		for j, spec := range specs {
			value := spec.Default
			if values != nil && values.Has(spec.Name) {
				value = values.Get(spec.Name)
			}
			inputs[j] = inputView{inputSpec: spec, Value: value}
		}
		sections[i] = sectionView{Title: l.titles[i], Inputs: inputs}
	}
	return sections
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "welcome", pageView{UIConfig: h.ui})
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form", pageView{
		UIConfig: h.ui,
		Sections: h.form.view(nil),
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	page := pageView{
		UIConfig: h.ui,
		Sections: h.form.view(r.PostForm),
	}

	record, err := decodeRecordForm(r.PostForm)
	if err != nil {
		h.metrics.RecordRejected("validation")
		page.Error = err.Error()
		h.render(w, http.StatusBadRequest, "form", page)
		return
	}
	prediction, err := h.predict(r, record)
	if err != nil {
		status := statusFor(err)
		page.Error = err.Error()
		if status == http.StatusInternalServerError {
			page.Error = "prediction is unavailable"
		}
		h.render(w, status, "form", page)
		return
	}

	page.Result = &resultView{
		Subscribed:  prediction.Label == ml.Subscribed,
		Probability: prediction.Probability,
	}
	h.render(w, http.StatusOK, "form", page)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, page pageView) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, page); err != nil {
		h.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// decodeRecordForm reads a submitted prediction form. Categorical values are
// passed through as-is; the encoder rejects anything outside the vocabulary.
func decodeRecordForm(values url.Values) (ml.Record, error) {
	numbers := make(map[string]float64)
	for _, field := range ml.NumericFields() {
		raw := strings.TrimSpace(values.Get(field.Column))
		if raw == "" {
			return ml.Record{}, &validationError{err: fmt.Errorf("%s is required", field.Label)}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return ml.Record{}, &validationError{err: fmt.Errorf("%s must be a number", field.Label)}
		}
		numbers[field.Column] = v
	}

	return ml.Record{
		Age:          numbers["age"],
		Duration:     numbers["duration"],
		Campaign:     numbers["campaign"],
		PDays:        numbers["pdays"],
		Previous:     numbers["previous"],
		EmpVarRate:   numbers["emp.var.rate"],
		ConsPriceIdx: numbers["cons.price.idx"],
		ConsConfIdx:  numbers["cons.conf.idx"],
		Euribor3m:    numbers["euribor3m"],
		NrEmployed:   numbers["nr.employed"],

		Job:       values.Get("job"),
		Marital:   values.Get("marital"),
		Education: values.Get("education"),
		Default:   values.Get("default"),
		Housing:   values.Get("housing"),
		Loan:      values.Get("loan"),
		Contact:   values.Get("contact"),
		Month:     values.Get("month"),
		DayOfWeek: values.Get("day_of_week"),
		POutcome:  values.Get("poutcome"),
	}, nil
}
