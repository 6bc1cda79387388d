// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package validation

import (
	"strings"
	"testing"
)

type testRequest struct {
	Event   string   `json:"event" validate:"required,max=16,eventtag"`
	UserIDs []string `json:"user_ids" validate:"omitempty,max=2,dive,required"`
	Kind    string   `json:"kind" validate:"omitempty,oneof=a b"`
	Note    string   `validate:"omitempty,min=3"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     testRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{name: "valid", input: testRequest{Event: "message:new", UserIDs: []string{"u1"}}},
		{name: "missing event", input: testRequest{}, wantField: "event", wantTag: "required", wantMsg: "event is required"},
		{name: "event too long", input: testRequest{Event: strings.Repeat("a", 17)}, wantField: "event", wantTag: "max",
			wantMsg: "event must be at most 16 characters"},
		{name: "bad characters", input: testRequest{Event: "bad tag!"}, wantField: "event", wantTag: "eventtag"},
		{name: "leading colon", input: testRequest{Event: ":x"}, wantField: "event", wantTag: "eventtag"},
		{name: "too many users", input: testRequest{Event: "x", UserIDs: []string{"a", "b", "c"}}, wantField: "user_ids",
			wantTag: "max", wantMsg: "user_ids must be at most 2 items"},
		{name: "empty user id", input: testRequest{Event: "x", UserIDs: []string{""}}, wantField: "user_ids[0]", wantTag: "required"},
		{name: "oneof", input: testRequest{Event: "x", Kind: "c"}, wantField: "kind", wantTag: "oneof", wantMsg: "kind must be one of: a b"},
		{name: "field without json tag", input: testRequest{Event: "x", Note: "ab"}, wantField: "Note", wantTag: "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
			if tt.wantMsg != "" && errs[0].Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&testRequest{}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" || single.Message != "event is required" {
		t.Errorf("single = %+v", single)
	}
	if single.Details["field"] != "event" {
		t.Errorf("single details = %v", single.Details)
	}

	multi := ValidateStruct(&testRequest{Kind: "z", Note: "x"}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Fatalf("multi details = %v", multi.Details)
	}
	if !strings.Contains(multi.Message, "event is required") || !strings.Contains(multi.Message, ";") {
		t.Errorf("multi message = %q", multi.Message)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty = %+v", empty)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	verr := ValidateStruct("not a struct")
	if verr == nil || verr.Errors()[0].Field() != "unknown" {
		t.Errorf("ValidateStruct(string) = %v, want unknown field error", verr)
	}
}
