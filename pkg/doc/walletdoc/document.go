/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walletdoc implements the wallet document data model.
//
// A wallet document is a JSON object with '@context', 'id', 'type', 'value' and 'correlation' members.
// Any other member (name, address, symbol ...) is kept in Properties and round-trips unchanged.
// https://w3c-ccg.github.io/universal-wallet-interop-spec/
package walletdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

// ContextV1 is the wallet JSON-LD context attached to documents created by this module.
const ContextV1 = "https://w3id.org/wallet/v1"

// Document types known to wallet components. The type set is open, any non blank type is accepted.
const (
	TypeAddress                = "Address"
	TypeKeyringPair            = "KeyringPair"
	TypeMnemonic               = "Mnemonic"
	TypeCurrency               = "Currency"
	TypeEd25519VerificationKey = "Ed25519VerificationKey2018"
	TypeSr25519VerificationKey = "Sr25519VerificationKey2020"
	TypeDIDResolutionResponse  = "DIDResolutionResponse"
	TypeVerifiableCredential   = "VerifiableCredential"
)

const (
	jsonldContext   = "@context"
	jsonID          = "id"
	jsonType        = "type"
	jsonValue       = "value"
	jsonCorrelation = "correlation"
)

// DefaultSecretTypes are the document types whose value holds secret material.
func DefaultSecretTypes() []string {
	return []string{TypeKeyringPair, TypeMnemonic, TypeEd25519VerificationKey, TypeSr25519VerificationKey}
}

// Document is a wallet document.
type Document struct {
	Context     []string
	ID          string
	Type        string
	Value       interface{}
	Correlation []string
	Properties  map[string]interface{}
}

// New returns a document carrying the wallet context.
func New(id, docType string, value interface{}) *Document {
	return &Document{Context: []string{ContextV1}, ID: id, Type: docType, Value: value}
}

// Property returns a custom property as a string, empty if it is absent or not a string.
func (d *Document) Property(name string) string {
	if s, ok := d.Properties[name].(string); ok {
		return s
	}

	return ""
}

// SetProperty sets a custom property.
func (d *Document) SetProperty(name string, value interface{}) *Document {
	if d.Properties == nil {
		d.Properties = map[string]interface{}{}
	}

	d.Properties[name] = value

	return d
}

// MarshalJSON marshals the document to its JSON object form.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toMap())
}

func (d *Document) toMap() map[string]interface{} {
	raw := make(map[string]interface{}, len(d.Properties)+5) //nolint:gomnd

	for k, v := range d.Properties {
		raw[k] = v
	}

	if len(d.Context) > 0 {
		raw[jsonldContext] = d.Context
	}

	raw[jsonID] = d.ID
	raw[jsonType] = d.Type

	if d.Value != nil {
		raw[jsonValue] = d.Value
	}

	if len(d.Correlation) > 0 {
		raw[jsonCorrelation] = d.Correlation
	}

	return raw
}

// UnmarshalJSON unmarshals a document from JSON. '@context' may be a single string or a list.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("wallet document is not a JSON object: %w", err)
	}

	doc := Document{}

	if ctx, ok := raw[jsonldContext]; ok {
		c, err := decodeContext(ctx)
		if err != nil {
			return err
		}

		doc.Context = c
	}

	fields := []struct {
		name string
		dest interface{}
	}{
		{jsonID, &doc.ID},
		{jsonType, &doc.Type},
		{jsonCorrelation, &doc.Correlation},
	}

	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok {
			continue
		}

		if err := json.Unmarshal(v, f.dest); err != nil {
			return fmt.Errorf("invalid '%s' in wallet document: %w", f.name, err)
		}
	}

	if v, ok := raw[jsonValue]; ok {
		value, err := DecodeValue(v)
		if err != nil {
			return fmt.Errorf("invalid '%s' in wallet document: %w", jsonValue, err)
		}

		doc.Value = value
	}

	for _, k := range []string{jsonldContext, jsonID, jsonType, jsonValue, jsonCorrelation} {
		delete(raw, k)
	}

	if len(raw) > 0 {
		doc.Properties = make(map[string]interface{}, len(raw))

		for k, v := range raw {
			p, err := DecodeValue(v)
			if err != nil {
				return fmt.Errorf("invalid '%s' in wallet document: %w", k, err)
			}

			doc.Properties[k] = p
		}
	}

	*d = doc

	return nil
}

func decodeContext(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("invalid '@context' in wallet document: %w", err)
	}

	return list, nil
}

// Clone returns a deep copy of the document. Values keep their Go types, only values that are
// not plain JSON shapes (structs, typed maps) are copied through their JSON form.
func (d *Document) Clone() (*Document, error) {
	c := &Document{
		ID:   d.ID,
		Type: d.Type,
	}

	if len(d.Context) > 0 {
		c.Context = append([]string(nil), d.Context...)
	}

	if len(d.Correlation) > 0 {
		c.Correlation = append([]string(nil), d.Correlation...)
	}

	value, err := copyValue(d.Value)
	if err != nil {
		return nil, fmt.Errorf("clone document '%s': %w", d.ID, err)
	}

	c.Value = value

	if len(d.Properties) > 0 {
		c.Properties = make(map[string]interface{}, len(d.Properties))

		for k, v := range d.Properties {
			p, err := copyValue(v)
			if err != nil {
				return nil, fmt.Errorf("clone document '%s': %w", d.ID, err)
			}

			c.Properties[k] = p
		}
	}

	return c, nil
}

func copyValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t, nil
	case []string:
		return append([]string(nil), t...), nil
	case []interface{}:
		c := make([]interface{}, len(t))

		for i, e := range t {
			ce, err := copyValue(e)
			if err != nil {
				return nil, err
			}

			c[i] = ce
		}

		return c, nil
	case map[string]interface{}:
		c := make(map[string]interface{}, len(t))

		for k, e := range t {
			ce, err := copyValue(e)
			if err != nil {
				return nil, err
			}

			c[k] = ce
		}

		return c, nil
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}

		return DecodeValue(raw)
	}
}

// DecodeValue decodes a JSON value without losing integer precision. Integers decode to int64,
// integers beyond int64 stay json.Number and every other number decodes to float64.
func DecodeValue(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return exactNumbers(v), nil
}

func exactNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		if strings.ContainsAny(t.String(), ".eE") {
			if f, err := t.Float64(); err == nil {
				return f
			}
		}

		return t
	case []interface{}:
		for i, e := range t {
			t[i] = exactNumbers(e)
		}
	case map[string]interface{}:
		for k, e := range t {
			t[k] = exactNumbers(e)
		}
	}

	return v
}

// Validate checks the document is storable: id and type are required, correlation entries
// must be non blank and must not point back at the document itself.
func Validate(doc *Document) error {
	if doc == nil {
		return walleterr.New(walleterr.ValidationError, "wallet document is required")
	}

	if strings.TrimSpace(doc.ID) == "" {
		return walleterr.New(walleterr.ValidationError, "wallet document id is required")
	}

	if strings.TrimSpace(doc.Type) == "" {
		return walleterr.New(walleterr.ValidationError, "wallet document '%s' has no type", doc.ID)
	}

	for i, c := range doc.Correlation {
		if strings.TrimSpace(c) == "" {
			return walleterr.New(walleterr.ValidationError,
				"wallet document '%s' has a blank correlation at index %d", doc.ID, i)
		}

		if c == doc.ID {
			return walleterr.New(walleterr.ValidationError, "wallet document '%s' correlates to itself", doc.ID)
		}
	}

	return nil
}

// IsSecretType reports whether docType is one of secretTypes.
func IsSecretType(docType string, secretTypes []string) bool {
	for _, t := range secretTypes {
		if t == docType {
			return true
		}
	}

	return false
}
