package main

import (
	"context"
	"strings"
	"testing"

	"github.com/alexbotov/showcase/pkg/showcase"
	"github.com/google/go-cmp/cmp"
)

func TestRunRefusesResumeWithoutPersistentStore(t *testing.T) {
	t.Setenv("SHOWCASE_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("SHOWCASE_STORE_DRIVER", "memory")

	err := run(context.Background(), options{resume: "mobile"})
	if err == nil || !strings.Contains(err.Error(), "persistent store") {
		t.Errorf("Expected persistent store error, got %v", err)
	}
}

func TestWalkerActions(t *testing.T) {
	tests := []struct {
		name       string
		persistent bool
		want       []string
	}{
		{"Persistent", true, []string{actionSubmit, actionBack, actionSave}},
		{"Memory", false, []string{actionSubmit, actionBack, actionQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &walker{persistent: tt.persistent}
			if diff := cmp.Diff(tt.want, w.actions()); diff != "" {
				t.Errorf("Actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCurrentValue(t *testing.T) {
	step := showcase.NewStep(showcase.Form{Fields: []showcase.Field{
		{Name: "sum", Value: "100.00"},
		{Name: "phone"},
	}}, "/submit")
	step.Set("phone", "79001234567")

	if got := currentValue(step, step.Form.Fields[0]); got != "100.00" {
		t.Errorf("Expected field default 100.00, got %s", got)
	}
	if got := currentValue(step, step.Form.Fields[1]); got != "79001234567" {
		t.Errorf("Expected set value, got %s", got)
	}
}
