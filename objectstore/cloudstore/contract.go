// Package cloudstore implements Backend over remote blob services. Each
// concrete type below wraps one provider's native SDK client behind the
// same objectstore.Backend contract diskstore.Backend satisfies, so
// composite stores can mix local and remote backends transparently.
//
// When an adapter was constructed with a staging disk backend, a call
// with a non-empty Options.BaseDir is routed to that local disk instead
// of the remote API — the local_extra_dirs behavior recovered from the
// Python original. Without a staging backend, such calls go to the
// remote API like any other. Every adapter embeds staging to get this.
package cloudstore

import (
	"github.com/scioflow/objectstore/diskstore"
	"github.com/scioflow/objectstore/objectstore"
)

// staging optionally redirects calls with a non-empty BaseDir to a local
// disk backend rather than the remote service.
type staging struct {
	disk *diskstore.Backend
}

func (s staging) applies(opts objectstore.Options) bool {
	return s.disk != nil && opts.BaseDir != ""
}
