// Package compose turns an aggregated entry list into a publishable article
// through an external agent: a local model endpoint doing filter and draft
// as two calls, or a remote webhook doing both in one.
package compose

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bip-digest/internal/domain/entity"
)

// DefaultInstruction is attached to the payload when the caller provides no
// instruction of their own.
const DefaultInstruction = "Na podstawie powyższych wpisów z BIP przygotuj artykuł " +
	"nadający się do publikacji na WordPressie (tytuł, lead, treść)."

// Payload is the JSON document handed to the agent. The same shape is used
// for the webhook body, the scrape-only output and the fallback dump.
type Payload struct {
	Entries     []entity.Entry `json:"entries"`
	Instruction string         `json:"instruction"`
}

// BuildPayload assembles the agent payload, substituting the default
// instruction when none is given.
func BuildPayload(entries []entity.Entry, instruction string) Payload {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return Payload{Entries: entries, Instruction: instruction}
}

// Encode renders the payload as indented JSON. HTML escaping is disabled so
// Polish text and URLs stay readable in dumps and webhook bodies.
func (p Payload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return buf.Bytes(), nil
}
