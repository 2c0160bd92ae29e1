package http

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"termdeposit/ml"
	"termdeposit/monitoring"
)

//go:embed templates/*.html static/*
var assets embed.FS

// UIConfig holds the page texts. Project and Members are shown on the
// welcome page and in the form sidebar when set.
type UIConfig struct {
	Title    string
	Subtitle string
	Project  string
	Members  []string
}

// Handler serves the prediction pages and API with a predictor built at startup.
type Handler struct {
	predictor *ml.Predictor
	ui        UIConfig
	pages     *template.Template
	form      formLayout
	metrics   *monitoring.PredictionMetrics
	logger    *zap.Logger
}

func NewHandler(predictor *ml.Predictor, ui UIConfig, logger *zap.Logger) (*Handler, error) {
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		predictor: predictor,
		ui:        ui,
		pages:     pages,
		form:      newFormLayout(),
		metrics:   monitoring.NewPredictionMetrics(),
		logger:    logger,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	static, _ := fs.Sub(assets, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	mux.HandleFunc("GET /{$}", h.handleWelcome)
	mux.HandleFunc("GET /data_input", h.handleForm)
	mux.HandleFunc("POST /data_input", h.handleSubmit)

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /metrics", h.handlePrometheus)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fieldSchema struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Options  []string `json:"options"`
	Baseline string   `json:"baseline"`
	Columns  []string `json:"columns"`
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	numeric := make([]string, 0)
	for _, field := range ml.NumericFields() {
		numeric = append(numeric, field.Column)
	}
	fields := make([]fieldSchema, 0)
	for _, field := range ml.CategoricalFields() {
		fields = append(fields, fieldSchema{
			Name:     field.Name,
			Label:    field.Label,
			Options:  field.Options,
			Baseline: field.Baseline,
			Columns:  field.Columns(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"columns":     h.predictor.Columns(),
		"numeric":     numeric,
		"categorical": fields,
	})
}

type predictResponse struct {
	Label       string  `json:"label"`
	Subscribed  bool    `json:"subscribed"`
	Probability float64 `json:"probability"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var submission ml.Submission
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&submission); err != nil {
		h.metrics.RecordRejected("malformed_body")
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	record, err := submission.Record()
	if err != nil {
		h.metrics.RecordRejected("validation")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	prediction, err := h.predict(r, record)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, predictResponse{
		Label:       prediction.Label.String(),
		Subscribed:  prediction.Label == ml.Subscribed,
		Probability: prediction.Probability,
	})
}

// predict runs validation, encoding and classification for one record.
func (h *Handler) predict(r *http.Request, record ml.Record) (ml.Prediction, error) {
	if err := ml.ValidateRecord(record); err != nil {
		h.metrics.RecordRejected("validation")
		return ml.Prediction{}, &validationError{err: err}
	}
	row, err := ml.Encode(record)
	if err != nil {
		h.metrics.RecordRejected("invalid_category")
		return ml.Prediction{}, err
	}
	prediction, err := h.predictor.Predict(row)
	if err != nil {
		h.metrics.RecordFailure()
		h.logger.Error("classification failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		return ml.Prediction{}, err
	}
	h.metrics.RecordPrediction(prediction.Label.String())
	return prediction, nil
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.metrics.GetStats())
}

func (h *Handler) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.ExportPrometheus()))
}

type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }

func (e *validationError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var invalid *validationError
	switch {
	case errors.As(err, &invalid), errors.Is(err, ml.ErrInvalidCategory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
