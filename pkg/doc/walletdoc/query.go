/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletdoc

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

// Query is a document predicate. Every criterion set must match.
type Query struct {
	// ID matches the document id.
	ID string `json:"id,omitempty"`
	// Type matches the document type.
	Type string `json:"type,omitempty"`
	// Equals matches top level members by exact JSON value, ex: {"name": "savings"}.
	Equals map[string]interface{} `json:"equals,omitempty"`
	// JSONPath is evaluated against the document, ex: "$.correlation[?(@ == 'urn:uuid:1')]".
	// A document matches when the expression yields a non empty, non false result.
	JSONPath string `json:"jsonPath,omitempty"`
}

// Matcher reports whether a document satisfies a compiled query.
type Matcher func(doc *Document) bool

// MatchAll matches every document.
func MatchAll(*Document) bool { return true }

// Compile validates the query and returns its matcher. A nil query matches everything.
func (q *Query) Compile() (Matcher, error) {
	if q == nil {
		return MatchAll, nil
	}

	var equals map[string]interface{}

	if len(q.Equals) > 0 {
		if err := normalize(q.Equals, &equals); err != nil {
			return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid query 'equals'")
		}
	}

	var eval gval.Evaluable

	if q.JSONPath != "" {
		builder := gval.Full(jsonpath.PlaceholderExtension())

		e, err := builder.NewEvaluable(q.JSONPath)
		if err != nil {
			return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid query jsonPath '%s'", q.JSONPath)
		}

		eval = e
	}

	id, docType := q.ID, q.Type

	return func(doc *Document) bool {
		if id != "" && doc.ID != id {
			return false
		}

		if docType != "" && doc.Type != docType {
			return false
		}

		if equals == nil && eval == nil {
			return true
		}

		var obj map[string]interface{}
		if err := normalize(doc.toMap(), &obj); err != nil {
			return false
		}

		for k, want := range equals {
			if !reflect.DeepEqual(obj[k], want) {
				return false
			}
		}

		return eval == nil || truthy(eval, obj)
	}, nil
}

func truthy(eval gval.Evaluable, obj map[string]interface{}) bool {
	res, err := eval(context.Background(), obj)
	if err != nil || res == nil {
		return false
	}

	switch v := res.(type) {
	case bool:
		return v
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	}

	return true
}

// normalize maps v onto its generic JSON form so values compare the way they serialize.
func normalize(v interface{}, dest interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dest)
}
