package showcase

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var contextCmp = cmp.AllowUnexported(Context{})

func page(title, submitURL string) *Step {
	return NewStep(Form{Title: title}, submitURL)
}

func TestPushCurrentAsHistory(t *testing.T) {
	p1 := page("one", "/1")
	p2 := page("two", "/2")
	p3 := page("three", "/3")

	wc := NewContext(p1, time.Unix(0, 0))
	wc.PushCurrentAsHistory(p2)
	wc.PushCurrentAsHistory(p3)

	if wc.Current() != p3 {
		t.Errorf("Expected current to be p3, got %v", wc.Current().Form.Title)
	}
	history := wc.History()
	if len(history) != 2 || history[0] != p1 || history[1] != p2 {
		t.Errorf("Expected history [p1 p2], got %d entries", len(history))
	}
	for _, s := range history {
		if s == wc.Current() {
			t.Error("History must not contain the current step")
		}
	}
}

func TestPopHistory(t *testing.T) {
	t.Run("EmptyHistoryIsNoOp", func(t *testing.T) {
		p1 := page("one", "/1")
		wc := NewContext(p1, time.Unix(100, 0).UTC())
		before := *wc

		for i := 0; i < 3; i++ {
			if got := wc.PopHistory(); got != p1 {
				t.Fatalf("Expected p1 on pop %d, got %v", i, got)
			}
		}
		if diff := cmp.Diff(&before, wc, contextCmp); diff != "" {
			t.Errorf("Context changed on empty pop (-want +got):\n%s", diff)
		}
	})

	t.Run("PopsLastEntry", func(t *testing.T) {
		p1, p2 := page("one", "/1"), page("two", "/2")
		wc := NewContext(p1, time.Unix(0, 0))
		wc.PushCurrentAsHistory(p2)
		wc.reject(page("two again", "/2"), time.Unix(0, 0))

		if got := wc.PopHistory(); got != p1 {
			t.Errorf("Expected p1, got %v", got.Form.Title)
		}
		if len(wc.History()) != 0 {
			t.Errorf("Expected empty history, got %d", len(wc.History()))
		}
		if wc.State() != StateHasNextStep {
			t.Errorf("Expected state %s, got %s", StateHasNextStep, wc.State())
		}
	})

	t.Run("AnswersBeforeHistory", func(t *testing.T) {
		p1, p2 := page("one", "/1"), page("two", "/2")
		wc := NewContext(p1, time.Unix(0, 0))
		wc.advance(p2, time.Unix(0, 0))
		wc.complete(map[string]string{"amount": "10.00"}, time.Unix(0, 0))

		if got := wc.PopHistory(); got != p2 {
			t.Errorf("Expected the completed page p2 to stay current, got %v", got.Form.Title)
		}
		if len(wc.Answers()) != 0 {
			t.Errorf("Expected answers cleared, got %v", wc.Answers())
		}
		if wc.State() != StateHasNextStep {
			t.Errorf("Expected state %s, got %s", StateHasNextStep, wc.State())
		}
		if len(wc.History()) != 1 {
			t.Errorf("Expected history untouched with 1 entry, got %d", len(wc.History()))
		}

		if got := wc.PopHistory(); got != p1 {
			t.Errorf("Expected second pop to return p1, got %v", got.Form.Title)
		}
	})
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
	}{
		{StateUnknown, false},
		{StateHasNextStep, false},
		{StateInvalidParams, false},
		{StateCompleted, true},
		{StateNotModified, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}

	var zero Context
	if zero.State() != StateUnknown {
		t.Errorf("Expected zero context state %s, got %s", StateUnknown, zero.State())
	}
}

func TestAnswersReturnsCopy(t *testing.T) {
	wc := NewContext(page("one", "/1"), time.Unix(0, 0))
	wc.complete(map[string]string{"amount": "10.00"}, time.Unix(0, 0))

	answers := wc.Answers()
	delete(answers, "amount")

	if wc.Answers()["amount"] != "10.00" {
		t.Error("Mutating the returned answers must not affect the context")
	}
}

func TestContextJSONRoundTrip(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	p1 := NewStep(Form{
		Title:  "Top-up",
		Raw:    []byte(`{"title": "Top-up"}`),
		Fields: []Field{{Name: "phone", Label: "Phone", Required: true}},
		Hidden: map[string]string{"pattern_id": "5551"},
	}, "https://example.com/step/1")
	p1.Set("phone", "79001234567")
	p2 := NewStep(Form{Title: "Confirm"}, "https://example.com/step/2")

	tests := []struct {
		name string
		wc   *Context
	}{
		{"Fresh", NewContext(p1, modified)},
		{"WithHistory", func() *Context {
			wc := NewContext(p1, modified)
			wc.advance(p2, modified)
			return wc
		}()},
		{"Completed", func() *Context {
			wc := NewContext(p1, modified)
			wc.advance(p2, modified)
			wc.complete(map[string]string{"amount": "10.00", "phone": "79001234567"}, modified)
			return wc
		}()},
		{"NotModified", &Context{lastModified: modified, state: StateNotModified}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.wc)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			restored := new(Context)
			if err := json.Unmarshal(data, restored); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if diff := cmp.Diff(tt.wc, restored, contextCmp); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextUnmarshalRejectsBrokenState(t *testing.T) {
	tests := map[string]string{
		"UnknownState":         `{"history":[],"state":"finished","last_modified":"2024-01-01T00:00:00Z"}`,
		"AnswersNotCompleted":  `{"history":[],"state":"has_next_step","answers":{"a":"b"},"last_modified":"2024-01-01T00:00:00Z"}`,
		"CompletedWithoutData": `{"history":[],"state":"completed","last_modified":"2024-01-01T00:00:00Z"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var wc Context
			if err := json.Unmarshal([]byte(data), &wc); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestStepParams(t *testing.T) {
	step := NewStep(Form{
		Fields: []Field{
			{Name: "sum", Value: "100.00"},
			{Name: "phone"},
		},
		Hidden: map[string]string{"pattern_id": "5551", "sum": "0"},
	}, "/submit")
	step.Set("phone", "79001234567")

	want := map[string]string{
		"pattern_id": "5551",
		"sum":        "100.00",
		"phone":      "79001234567",
	}
	if diff := cmp.Diff(want, step.Params()); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}

	step.Set("sum", "250.00")
	if got := step.Params()["sum"]; got != "250.00" {
		t.Errorf("Expected caller value to win, got %s", got)
	}
}

func TestStepSubmittable(t *testing.T) {
	var nilStep *Step
	if nilStep.Submittable() {
		t.Error("Nil step must not be submittable")
	}
	if page("info", "").Submittable() {
		t.Error("Step without submit URL must not be submittable")
	}
	if !page("form", "/submit").Submittable() {
		t.Error("Step with submit URL must be submittable")
	}
}

func TestContextJSONRoundTripDecodedPages(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	bodies := []string{
		`{"title":"Top-up","hidden_fields":{},"form":[],"error":[]}`,
		`{"title":"Confirm","hidden_fields":{"pattern_id":"5551"},"form":[{"type":"group","items":[]}],"error":[]}`,
		`{"title":"Amount","form":[{"type":"amount","name":"sum","value":10.00}],"error":[{"name":"sum","alert":"too low"}]}`,
	}

	var wc *Context
	for i, body := range bodies {
		form, err := JSONCodec{}.DecodeForm([]byte(body))
		if err != nil {
			t.Fatalf("DecodeForm %d failed: %v", i, err)
		}
		step := NewStep(form, fmt.Sprintf("https://example.com/step/%d", i))
		if wc == nil {
			wc = NewContext(step, modified)
			continue
		}
		wc.advance(step, modified)
	}

	data, err := json.Marshal(wc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored := new(Context)
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(wc, restored, contextCmp); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}
