// Package store defines the listing store contract and the merge policy that
// keeps it deduplicated, ordered and capped. Backends live under
// internal/storage; this package must not import drivers or cloud clients.
package store
