package fakeserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type wireItem struct {
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	Label    string     `json:"label,omitempty"`
	Value    string     `json:"value,omitempty"`
	Required bool       `json:"required,omitempty"`
	Items    []wireItem `json:"items,omitempty"`
}

type wireError struct {
	Name  string `json:"name"`
	Alert string `json:"alert"`
}

type wirePage struct {
	Title        string            `json:"title"`
	HiddenFields map[string]string `json:"hidden_fields,omitempty"`
	Form         []wireItem        `json:"form"`
	Errors       []wireError       `json:"error,omitempty"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type paymentResponse struct {
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
	ContractAmount   string `json:"contract_amount,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, ErrorDescription: message})
}

func stepPath(patternID string, step int) string {
	return fmt.Sprintf("/api/showcase/%s/steps/%d", patternID, step)
}

// handleShowcase serves the first page of a pattern
func (s *Server) handleShowcase(w http.ResponseWriter, r *http.Request) {
	p, ok := s.patterns[mux.Vars(r)["pattern"]]
	if !ok {
		respondError(w, http.StatusNotFound, "payee_not_found", "Unknown pattern")
		return
	}
	if p.MovedTo != "" {
		w.Header().Set("Location", "/api/showcase/"+p.MovedTo)
		w.WriteHeader(http.StatusMovedPermanently)
		return
	}

	w.Header().Set("Last-Modified", p.ModifiedAt.Format(http.TimeFormat))
	if since, err := http.ParseTime(r.Header.Get("If-Modified-Since")); err == nil && !p.ModifiedAt.After(since) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if len(p.Pages) == 0 {
		respondError(w, http.StatusInternalServerError, "internal_error", "Pattern has no pages")
		return
	}

	w.Header().Set("Location", stepPath(p.ID, 0))
	respondJSON(w, http.StatusMultipleChoices, renderPage(p.Pages[0], map[string]string{"pattern_id": p.ID}, nil, nil))
}

// handleStep validates a submitted page and answers with the next page, the
// same page with errors, or the collected parameters
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, ok := s.patterns[vars["pattern"]]
	if !ok || p.MovedTo != "" {
		respondError(w, http.StatusNotFound, "payee_not_found", "Unknown pattern")
		return
	}
	n, err := strconv.Atoi(vars["step"])
	if err != nil || n >= len(p.Pages) {
		respondError(w, http.StatusNotFound, "not_found", "Unknown step")
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "illegal_params", "Malformed form")
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	params["pattern_id"] = p.ID

	w.Header().Set("Last-Modified", p.ModifiedAt.Format(http.TimeFormat))

	page := p.Pages[n]
	var errs []wireError
	for _, f := range page.Fields {
		if f.Required && params[f.Name] == "" {
			errs = append(errs, wireError{Name: f.Name, Alert: "This field is required"})
		}
	}
	if len(errs) > 0 {
		hidden := withoutFields(params, page)
		w.Header().Set("Location", stepPath(p.ID, n))
		respondJSON(w, http.StatusBadRequest, renderPage(page, hidden, params, errs))
		return
	}

	if n+1 < len(p.Pages) {
		w.Header().Set("Location", stepPath(p.ID, n+1))
		respondJSON(w, http.StatusMultipleChoices, renderPage(p.Pages[n+1], params, nil, nil))
		return
	}
	respondJSON(w, http.StatusOK, params)
}

// handleRequestPayment accepts a completed parameter bundle
func (s *Server) handleRequestPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "illegal_params", "Malformed form")
		return
	}
	p, ok := s.patterns[r.PostForm.Get("pattern_id")]
	if !ok {
		respondJSON(w, http.StatusOK, paymentResponse{Status: "refused", Error: "payee_not_found"})
		return
	}
	if p.Refuse != "" {
		respondJSON(w, http.StatusOK, paymentResponse{Status: "refused", Error: p.Refuse})
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	payment := Payment{
		RequestID: uuid.New().String(),
		PatternID: p.ID,
		Params:    params,
	}
	s.recordPayment(payment)

	respondJSON(w, http.StatusOK, paymentResponse{
		Status:         "success",
		RequestID:      payment.RequestID,
		ContractAmount: params["sum"],
	})
}

// renderPage builds the wire form of page. values prefill the fields.
func renderPage(page Page, hidden, values map[string]string, errs []wireError) wirePage {
	items := make([]wireItem, 0, len(page.Fields))
	for _, f := range page.Fields {
		value := f.Value
		if v, ok := values[f.Name]; ok {
			value = v
		}
		items = append(items, wireItem{
			Type:     f.Type,
			Name:     f.Name,
			Label:    f.Label,
			Value:    value,
			Required: f.Required,
		})
	}
	return wirePage{
		Title:        page.Title,
		HiddenFields: hidden,
		Form:         []wireItem{{Type: "group", Items: items}},
		Errors:       errs,
	}
}

// withoutFields drops the page's own fields from params so they are not
// echoed back as hidden fields
func withoutFields(params map[string]string, page Page) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, f := range page.Fields {
		delete(out, f.Name)
	}
	return out
}
