package cloudstore

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/scioflow/objectstore/objerr"
	"github.com/scioflow/objectstore/objectstore"
)

// KeyParams mirrors pathpolicy.Params but builds forward-slash object
// keys rather than filesystem paths: blob and S3 keys are not subject to
// the host's path separator, so the sharding scheme is reimplemented
// here in terms of "path" instead of "path/filepath".
type KeyParams struct {
	Prefix  string
	StoreBy objectstore.StoreBy
}

func shardKey(id int64) string {
	s := strconv.FormatInt(id, 10)
	pad := (3 - len(s)%3) % 3
	padded := strings.Repeat("0", pad) + s
	n := len(padded) / 3
	groups := make([]string, n)
	for i := 0; i < n; i++ {
		groups[i] = padded[i*3 : i*3+3]
	}
	return path.Join(groups...)
}

func identity(obj objectstore.LogicalObject, storeBy objectstore.StoreBy) (int64, string, bool) {
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

// ObjectKey computes the blob/object key for obj, matching the shard
// layout pathpolicy.Build uses for local files so that a dataset's
// address is structurally the same regardless of which backend holds
// it.
func ObjectKey(obj objectstore.LogicalObject, opts objectstore.Options, p KeyParams) (string, error) {
	if opts.ExtraDir != "" && path.Clean(opts.ExtraDir) != opts.ExtraDir {
		return "", objerr.InvalidObjectf("extraDir is not normalized: %s", opts.ExtraDir)
	}
	if opts.AltName != "" && (path.IsAbs(opts.AltName) || strings.Contains(opts.AltName, "..")) {
		return "", objerr.InvalidObjectf("altName would locate key outside prefix: %s", opts.AltName)
	}

	numericID, idStr, haveID := identity(obj, p.StoreBy)
	if !haveID && !opts.DirOnly {
		return "", objerr.InvalidObjectf(
			"the effective dataset identifier consumed by object store [%s] must be set before a key can be constructed", p.StoreBy)
	}

	var parts []string
	if p.Prefix != "" {
		parts = append(parts, p.Prefix)
	}
	if p.StoreBy == objectstore.StoreByUUID {
		s := strings.ReplaceAll(idStr, "-", "")
		if len(s) >= 3 {
			parts = append(parts, s[:3], s[3:])
		} else {
			parts = append(parts, s)
		}
	} else {
		parts = append(parts, shardKey(numericID))
	}
	if opts.ObjDir {
		parts = append(parts, idStr)
	}
	if opts.ExtraDir != "" {
		if opts.ExtraDirAtRoot {
			parts = append([]string{opts.ExtraDir}, parts...)
		} else {
			parts = append(parts, opts.ExtraDir)
		}
	}

	key := path.Join(parts...)
	if opts.DirOnly {
		return key, nil
	}
	leaf := opts.AltName
	if leaf == "" {
		leaf = fmt.Sprintf("dataset_%s.dat", idStr)
	}
	return path.Join(key, leaf), nil
}
