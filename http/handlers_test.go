package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"termdeposit/ml"
)

type brokenModel struct{}

func (brokenModel) FeatureNames() []string { return ml.Columns() }

func (brokenModel) Predict(features []float64) (int, float64, error) {
	panic("predict must not be reached")
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	cols := ml.Columns()
	coefficients := make([]float64, len(cols))
	for i, c := range cols {
		if c == "duration" {
			coefficients[i] = 0.005
		}
	}
	model, err := ml.NewLogisticRegression(cols, -3, coefficients, 0.5)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	predictor, err := ml.NewPredictor(model, ml.WithCacheSize(16))
	if err != nil {
		t.Fatalf("new predictor: %v", err)
	}
	handler, err := NewHandler(predictor, UIConfig{Title: "Bank Term Deposit Prediction", Subtitle: "Welcome"}, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	mux := http.NewServeMux()
	handler.Register(mux)
	return mux
}

func scenarioForm() url.Values {
	return url.Values{
		"age":            {"35"},
		"job":            {"technician"},
		"marital":        {"single"},
		"education":      {"university.degree"},
		"default":        {"no"},
		"housing":        {"yes"},
		"loan":           {"no"},
		"contact":        {"cellular"},
		"month":          {"may"},
		"day_of_week":    {"mon"},
		"duration":       {"120"},
		"campaign":       {"1"},
		"pdays":          {"999"},
		"previous":       {"0"},
		"poutcome":       {"nonexistent"},
		"emp.var.rate":   {"1.1"},
		"cons.price.idx": {"93.2"},
		"cons.conf.idx":  {"-36.4"},
		"euribor3m":      {"4.857"},
		"nr.employed":    {"5191"},
	}
}

func postForm(mux http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/data_input", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestWelcomePage(t *testing.T) {
	mux := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `href="/data_input"`) || !strings.Contains(body, "Begin Prediction") {
		t.Fatalf("welcome page does not link to the form: %s", body)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", w.Code)
	}
}

func TestFormPage(t *testing.T) {
	mux := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data_input", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="job"`,
		`<option value="blue-collar">Blue-Collar</option>`,
		`<option value="university.degree">University Degree</option>`,
		`name="pdays" value="999"`,
		`min="18"`,
		"Economic Indicators",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("form is missing %q", want)
		}
	}
	if strings.Contains(body, "Prediction:") {
		t.Fatalf("fresh form must not show a result")
	}
}

func TestSubmitForm(t *testing.T) {
	mux := newTestMux(t)

	w := postForm(mux, scenarioForm())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Prediction: Not Subscribed (No)") {
		t.Fatalf("expected negative banner: %s", body)
	}
	if !strings.Contains(body, `<option value="technician" selected>`) {
		t.Fatalf("submitted values should be kept")
	}

	values := scenarioForm()
	values.Set("duration", "1200")
	w = postForm(mux, values)
	if !strings.Contains(w.Body.String(), "Prediction: Subscribed (Yes)") {
		t.Fatalf("expected positive banner: %s", w.Body.String())
	}
}

func TestSubmitFormRejectsBadInput(t *testing.T) {
	mux := newTestMux(t)
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"not a number", "duration", "long", "must be a number"},
		{"below bound", "age", "12", "age must be at least 18"},
		{"unknown category", "job", "astronaut", "invalid category"},
		{"missing number", "euribor3m", "", "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := scenarioForm()
			values.Set(tt.field, tt.value)
			w := postForm(mux, values)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("expected %q in body: %s", tt.want, w.Body.String())
			}
		})
	}
}

func TestPredictAPI(t *testing.T) {
	mux := newTestMux(t)
	body := `{
		"age": 35, "job": "technician", "marital": "single", "education": "university.degree",
		"default": "no", "housing": "yes", "loan": "no", "contact": "cellular",
		"month": "may", "day_of_week": "mon", "duration": 120, "campaign": 1,
		"pdays": 999, "previous": 0, "poutcome": "nonexistent", "emp.var.rate": 1.1,
		"cons.price.idx": 93.2, "cons.conf.idx": -36.4, "euribor3m": 4.857, "nr.employed": 5191
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload predictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Label != "not_subscribed" || payload.Subscribed {
		t.Fatalf("unexpected prediction: %+v", payload)
	}

	bad := strings.Replace(body, `"month": "may"`, `"month": "smarch"`, 1)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(bad)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"age":"old"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestPredictAPIRequiresEveryNumber(t *testing.T) {
	mux := newTestMux(t)
	categories := `"job": "technician", "marital": "single", "education": "university.degree",
		"default": "no", "housing": "yes", "loan": "no", "contact": "cellular",
		"month": "may", "day_of_week": "mon", "poutcome": "nonexistent"`
	numbers := `"age": 35, "campaign": 1, "pdays": 999, "previous": 0, "emp.var.rate": 1.1,
		"cons.price.idx": 93.2, "cons.conf.idx": -36.4, "euribor3m": 4.857, "nr.employed": 5191`

	tests := []struct {
		name string
		body string
	}{
		{"only age", `{"age": 35, ` + categories + `}`},
		{"missing duration", `{` + numbers + `, ` + categories + `}`},
		{"null duration", `{"duration": null, ` + numbers + `, ` + categories + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body)))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "is required") {
				t.Fatalf("expected a required-field message: %s", w.Body.String())
			}
		})
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var stats struct {
		Predictions map[string]int64 `json:"predictions"`
		Rejected    map[string]int64 `json:"rejected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if stats.Rejected["validation"] != 3 || len(stats.Predictions) != 0 {
		t.Fatalf("unexpected metrics: %+v", stats)
	}

	body := `{"duration": 0, ` + numbers + `, ` + categories + `}`
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("an explicit zero must be accepted, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSchemaAPI(t *testing.T) {
	mux := newTestMux(t)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schema", nil))

	var payload struct {
		Columns     []string      `json:"columns"`
		Numeric     []string      `json:"numeric"`
		Categorical []fieldSchema `json:"categorical"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Columns) != len(ml.Columns()) || len(payload.Numeric) != 10 || len(payload.Categorical) != 10 {
		t.Fatalf("unexpected schema sizes: %d %d %d", len(payload.Columns), len(payload.Numeric), len(payload.Categorical))
	}
	if payload.Categorical[0].Name != "job" || payload.Categorical[0].Baseline != "admin." {
		t.Fatalf("unexpected first field: %+v", payload.Categorical[0])
	}
}

func TestInvalidCategoryNeverReachesModel(t *testing.T) {
	predictor, err := ml.NewPredictor(brokenModel{})
	if err != nil {
		t.Fatalf("new predictor: %v", err)
	}
	handler, err := NewHandler(predictor, UIConfig{}, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	mux := http.NewServeMux()
	handler.Register(mux)

	values := scenarioForm()
	values.Set("poutcome", "maybe")
	if w := postForm(mux, values); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMetricsAPI(t *testing.T) {
	mux := newTestMux(t)
	postForm(mux, scenarioForm())
	values := scenarioForm()
	values.Set("job", "astronaut")
	postForm(mux, values)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var stats struct {
		Predictions map[string]int64 `json:"predictions"`
		Rejected    map[string]int64 `json:"rejected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if stats.Predictions["not_subscribed"] != 1 || stats.Rejected["invalid_category"] != 1 {
		t.Fatalf("unexpected metrics: %+v", stats)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `predictions_total{label="not_subscribed"} 1`) {
		t.Fatalf("unexpected prometheus output: %s", w.Body.String())
	}
}

func TestProjectMembers(t *testing.T) {
	model, err := ml.NewLogisticRegression(ml.Columns(), 0, make([]float64, len(ml.Columns())), 0.5)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	predictor, err := ml.NewPredictor(model)
	if err != nil {
		t.Fatalf("new predictor: %v", err)
	}
	handler, err := NewHandler(predictor, UIConfig{
		Title:   "Bank Term Deposit Prediction",
		Project: "ADA442 Project",
		Members: []string{"Ada", "Grace"},
	}, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	mux := http.NewServeMux()
	handler.Register(mux)

	for _, path := range []string{"/", "/data_input"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		body := w.Body.String()
		for _, want := range []string{"ADA442 Project", "Group Members:", "Ada", "Grace"} {
			if !strings.Contains(body, want) {
				t.Fatalf("%s is missing %q", path, want)
			}
		}
	}

	w := httptest.NewRecorder()
	newTestMux(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(w.Body.String(), "Group Members:") {
		t.Fatal("member list must be omitted when no members are configured")
	}
}
