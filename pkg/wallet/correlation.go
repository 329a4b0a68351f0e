/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
)

// ResolveCorrelations returns the document id followed by the documents of its correlation list, in list order.
// Resolution is one hop deep: the correlations of correlated documents are not followed.
func (s *Store) ResolveCorrelations(ctx context.Context, id string) ([]*walletdoc.Document, error) {
	root, err := s.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := make([]*walletdoc.Document, 0, 1+len(root.Correlation))
	result = append(result, root)

	for _, cid := range root.Correlation {
		doc, err := s.GetDocumentByID(ctx, cid)
		if err != nil {
			if walleterr.IsKind(err, walleterr.NotFound) {
				return nil, walleterr.New(walleterr.NotFound, "correlated document %s of %s not found", cid, id)
			}

			return nil, err
		}

		result = append(result, doc)
	}

	return result, nil
}

func findType(docs []*walletdoc.Document, docType string) *walletdoc.Document {
	for _, d := range docs {
		if d.Type == docType {
			return d
		}
	}

	return nil
}
