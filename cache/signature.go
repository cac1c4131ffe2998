package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// SignatureInput collects every field that participates in the cache key.
// Any difference in any field must change the signature.
type SignatureInput struct {
	Code           string
	FilePath       string
	BrandPackID    string
	BrandVersion   string
	EngineVersion  string
	RulesetVersion string
	OverridesHash  string
	ComponentType  string
	EnvFlags       []string
}

// Signature derives the cache key: SHA-256 over a length-prefixed encoding
// of all input fields, rendered as lowercase hex. Length prefixes keep field
// boundaries unambiguous ("ab"+"c" never collides with "a"+"bc"), flags are
// sorted so the caller's ordering does not matter.
func Signature(in SignatureInput) string {
	h := sha256.New()
	field := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	field(in.Code)
	field(in.FilePath)
	field(in.BrandPackID)
	field(in.BrandVersion)
	field(in.EngineVersion)
	field(in.RulesetVersion)
	field(in.OverridesHash)
	field(in.ComponentType)

	flags := append([]string(nil), in.EnvFlags...)
	sort.Strings(flags)
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(flags)))
	h.Write(n[:])
	for _, f := range flags {
		field(f)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// HashOverrides folds a set of per-run override values into a single stable
// digest for signature input.
func HashOverrides(overrides map[string]string) string {
	if len(overrides) == 0 {
		return ""
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	field := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	for _, k := range keys {
		field(k)
		field(overrides[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
