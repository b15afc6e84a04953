// Package pathpolicy implements the deterministic logical-ID ->
// filesystem path mapping plus the hash-sharding and safe-path rules it
// depends on. It is a pure, I/O-free package, in the spirit of azcopy's
// own URL/path helpers and distribution-distribution's own
// registry/storage/paths.go: small pure functions, no state,
// table-driven tests.
package pathpolicy

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
)

// Params bundles the inputs PathBuilder needs beyond the object and
// per-call options: which root to resolve against, the named extra
// roots a BaseDir option can select, which identity attribute is
// authoritative, and whether the legacy (unsharded) layout applies.
type Params struct {
	FilesRoot string
	ExtraDirs map[string]string
	StoreBy   objectstore.StoreBy
	OldStyle  bool
}

// Shard computes the 3-digit-group directory prefix for a decimal id,
// e.g. 1 -> "000", 1234 -> "001/234", 1234567 -> "001/234/567". Groups
// are taken from the left after zero-padding the first group, so no
// directory ever holds more than 1000 siblings.
func Shard(id int64) string {
	s := strconv.FormatInt(id, 10)
	// zero-pad so the total length is a multiple of 3, then split into
	// 3-char groups from the left.
	pad := (3 - len(s)%3) % 3
	padded := strings.Repeat("0", pad) + s
	n := len(padded) / 3
	groups := make([]string, n)
	for i := 0; i < n; i++ {
		groups[i] = padded[i*3 : i*3+3]
	}
	return filepath.Join(groups...)
}

// safeRelPath reports whether p is a relative path that, once
// normalized, cannot escape its parent: no ".." components and not
// itself absolute. Rejects any path that could escape its root.
func safeRelPath(p string) bool {
	if p == "" {
		return true
	}
	if filepath.IsAbs(p) {
		return false
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return false
		}
	}
	return true
}

func objectID(obj objectstore.LogicalObject, storeBy objectstore.StoreBy) (int64, string, bool) {
	if storeBy == objectstore.StoreByUUID {
		if u, ok := obj.ObjectUUID(); ok && u != "" {
			return 0, u, true
		}
	}
	if id, ok := obj.ObjectID(); ok {
		return id, strconv.FormatInt(id, 10), true
	}
	return 0, "", false
}

// Build computes the absolute path for obj under the given params and
// per-call options.
func Build(obj objectstore.LogicalObject, opts objectstore.Options, p Params) (string, error) {
	root := p.FilesRoot
	if opts.BaseDir != "" {
		if r, ok := p.ExtraDirs[opts.BaseDir]; ok {
			root = r
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", objerr.InvalidObjectf("cannot resolve root %q: %v", root, err)
	}

	if opts.ExtraDir != "" {
		if filepath.Clean(opts.ExtraDir) != opts.ExtraDir {
			return "", objerr.InvalidObjectf("extraDir is not normalized: %s", opts.ExtraDir)
		}
		if !safeRelPath(opts.ExtraDir) {
			return "", objerr.InvalidObjectf("extraDir would locate path outside root: %s", opts.ExtraDir)
		}
	}
	if opts.AltName != "" && !safeRelPath(opts.AltName) {
		return "", objerr.InvalidObjectf("altName would locate path outside dir: %s", opts.AltName)
	}

	_, idStr, haveID := objectID(obj, p.StoreBy)
	if !haveID && !opts.DirOnly {
		return "", objerr.InvalidObjectf(
			"the effective dataset identifier consumed by object store [%s] must be set before a path can be constructed", p.StoreBy)
	}

	var relParts []string
	if p.OldStyle {
		if opts.ExtraDir != "" {
			relParts = append(relParts, opts.ExtraDir)
		}
	} else {
		var numericID int64
		if haveID {
			numericID, _, _ = objectID(obj, p.StoreBy)
		}
		if p.StoreBy == objectstore.StoreByUUID {
			relParts = append(relParts, shardUUID(idStr))
		} else {
			relParts = append(relParts, Shard(numericID))
		}
		if opts.ObjDir {
			relParts = append(relParts, idStr)
		}
		if opts.ExtraDir != "" {
			if opts.ExtraDirAtRoot {
				relParts = append([]string{opts.ExtraDir}, relParts...)
			} else {
				relParts = append(relParts, opts.ExtraDir)
			}
		}
	}

	full := filepath.Join(append([]string{root}, relParts...)...)
	if !opts.DirOnly {
		leaf := opts.AltName
		if leaf == "" {
			leaf = fmt.Sprintf("dataset_%s.dat", idStr)
		}
		full = filepath.Join(full, leaf)
	}
	return filepath.Abs(full)
}

// shardUUID shards a uuid-keyed object by stripping the uuid's hyphens
// and splitting the result into two directory components: its first
// three characters and the remainder (the remainder is not grouped
// further). A uuid shorter than three characters is used as is.
// uuid-keyed stores are rare in practice (jobs almost always use id),
// but the layout rule must still be total.
func shardUUID(uuid string) string {
	s := strings.ReplaceAll(uuid, "-", "")
	if len(s) < 3 {
		return s
	}
	return filepath.Join(s[:3], s[3:])
}

// Legacy computes the pre-sharding path for obj, used only to probe for
// backward-compatibility with objects created before hash sharding.
func Legacy(obj objectstore.LogicalObject, opts objectstore.Options, p Params) (string, error) {
	p.OldStyle = true
	return Build(obj, opts, p)
}
