// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package ingest

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/realtime"
	"github.com/tomtom215/murmur/internal/validation"
)

// MaxEnvelopeBytes bounds a single encoded envelope.
const MaxEnvelopeBytes = 1 << 20

var (
	// ErrInvalidEnvelope wraps every decode or validation failure.
	ErrInvalidEnvelope = errors.New("invalid event envelope")

	// ErrReservedEvent is returned for tags only the registry may emit.
	ErrReservedEvent = errors.New("event tag is reserved")

	// ErrNoTarget is returned when neither broadcast nor user_ids is set.
	ErrNoTarget = errors.New("either broadcast or user_ids is required")

	// ErrAmbiguousTarget is returned when both broadcast and user_ids are set.
	ErrAmbiguousTarget = errors.New("broadcast and user_ids are mutually exclusive")
)

// Envelope is an event pushed by another process for fan-out:
//
//	{"user_ids": ["u1","u2"], "event": "message:new", "data": {...}}
//	{"broadcast": true, "event": "post:new", "data": {...}}
//
// Data is forwarded to sockets byte for byte.
type Envelope struct {
	UserIDs   []string        `json:"user_ids,omitempty" validate:"omitempty,max=1000,dive,required,max=256"`
	Broadcast bool            `json:"broadcast,omitempty"`
	Event     string          `json:"event" validate:"required,max=128,eventtag"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Decode parses and validates one envelope.
func Decode(payload []byte) (Envelope, error) {
	var env Envelope
	if len(payload) > MaxEnvelopeBytes {
		return env, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidEnvelope, MaxEnvelopeBytes)
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return env, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return env, err
	}
	return env, nil
}

// Validate checks field rules and the broadcast/user_ids exclusivity.
func (e *Envelope) Validate() error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, verr)
	}
	if realtime.IsReserved(e.Event) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidEnvelope, ErrReservedEvent, e.Event)
	}
	switch {
	case e.Broadcast && len(e.UserIDs) > 0:
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, ErrAmbiguousTarget)
	case !e.Broadcast && len(e.UserIDs) == 0:
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, ErrNoTarget)
	}
	return nil
}

// ToEvent builds the outbound frame.
func (e *Envelope) ToEvent() realtime.Event {
	ev := realtime.Event{Event: e.Event}
	if len(e.Data) > 0 {
		ev.Data = e.Data
	}
	return ev
}
