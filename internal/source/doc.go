// Package source defines the capability every upstream listing site
// implements and the normalization shared by all of them: organization
// splitting, date parsing, link resolution, the recency window, identity
// and classification.
//
// Concrete sites live in sub-packages (tjn, nstc). Adding a site means
// implementing Adapter, not extending an existing one.
package source
