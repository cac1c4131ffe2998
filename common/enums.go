// The only reason this package exists is because both configuration and the
// enhancement pipeline need the same enums and I do not want pipeline packages
// to depend on configuration internals (or the other way around). So enums are
// separated into their own package.
package common

// Kind of a single proposed style change.
// ENUM(token-substitution, hierarchy-addition, optimization)
type ChangeKind int

// Design token category a literal style value may resolve against.
// ENUM(color, spacing, radius, elevation)
type TokenCategory int

// Reason a candidate change was dropped before delivery.
// ENUM(cap-exceeded, ignored-scope, excluded-path, contrast-violation, duplicate)
type SuppressReason int

// Gate deciding whether qualifying changes are committed automatically.
// ENUM(safe, off)
type AutoApplyMode int

// Behavior when brand token resolution fails.
// ENUM(degrade, strict)
type ResolveMode int
