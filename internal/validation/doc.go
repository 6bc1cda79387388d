// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared. Error field names
// come from json tags so messages match the wire format, and the custom
// "eventtag" rule restricts event names to letters, digits and ":._-".
//
// Example usage:
//
//	type Envelope struct {
//	    Event string `json:"event" validate:"required,max=128,eventtag"`
//	}
//
//	if verr := validation.ValidateStruct(&env); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
