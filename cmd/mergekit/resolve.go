package main

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/modules/refstore"
)

// mustResolve resolves rev to a commit OID, turning "exists but empty" and
// "doesn't exist" into a single error a CLI command can just propagate.
func mustResolve(ctx context.Context, refs *refstore.Store, rev string) (oid.OID, error) {
	id, ok, err := refs.Resolve(ctx, rev)
	if err != nil {
		return oid.Zero, err
	}
	if !ok {
		return oid.Zero, fmt.Errorf("%q does not resolve to a commit", rev)
	}
	return id, nil
}
