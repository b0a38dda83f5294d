// Package schema validates websocket messages against named JSON Schema contracts.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed contracts.json
var contractsJSON []byte

const contractsURL = "mem://kraken-tools/contracts.json"

// Contract names a message shape.
type Contract string

const (
	SubscriptionRequest  Contract = "SubscriptionRequest"
	SubscriptionResponse Contract = "SubscriptionResponse"
	Heartbeat            Contract = "Heartbeat"
	TickerUpdate         Contract = "TickerUpdate"
)

// Contracts lists every contract the validator knows.
var Contracts = []Contract{SubscriptionRequest, SubscriptionResponse, Heartbeat, TickerUpdate}

// ErrUnknownContract is returned when validating against an unregistered contract.
var ErrUnknownContract = errors.New("unknown contract")

// ValidationError describes a message that does not satisfy its contract.
type ValidationError struct {
	Contract Contract
	Detail   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Contract, e.Detail)
}

// Validator checks decoded messages against compiled contracts.
// It is safe for concurrent use.
type Validator struct {
	schemas map[Contract]*jsonschema.Schema
}

// New compiles the embedded contracts.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(contractsURL, bytes.NewReader(contractsJSON)); err != nil {
		return nil, fmt.Errorf("add contracts: %w", err)
	}

	v := &Validator{schemas: make(map[Contract]*jsonschema.Schema, len(Contracts))}
	for _, c := range Contracts {
		s, err := compiler.Compile(contractsURL + "#/definitions/" + string(c))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", c, err)
		}
		v.schemas[c] = s
	}
	return v, nil
}

// MustNew is like New but panics if the embedded contracts do not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a raw JSON message against contract.
func (v *Validator) Validate(contract Contract, raw []byte) error {
	s, ok := v.schemas[contract]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, contract)
	}

	doc, err := decodeJSON(raw)
	if err != nil {
		return &ValidationError{Contract: contract, Detail: "invalid JSON: " + err.Error()}
	}
	return validate(contract, s, doc)
}

// ValidateValue checks an in-memory value against contract.
// The value is round-tripped through JSON so structs and maps validate alike.
func (v *Validator) ValidateValue(contract Contract, value any) error {
	s, ok := v.schemas[contract]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, contract)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return &ValidationError{Contract: contract, Detail: "encode: " + err.Error()}
	}
	doc, err := decodeJSON(raw)
	if err != nil {
		return &ValidationError{Contract: contract, Detail: "decode: " + err.Error()}
	}
	return validate(contract, s, doc)
}

// decodeJSON decodes raw into the generic form the validator expects.
// Numbers stay json.Number so large or precise values are checked exactly.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return doc, nil
}

func validate(contract Contract, s *jsonschema.Schema, doc any) error {
	err := s.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Contract: contract, Detail: leafMessage(ve)}
	}
	return &ValidationError{Contract: contract, Detail: err.Error()}
}

// leafMessage returns the first innermost cause with its instance location.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
