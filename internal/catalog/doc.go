// Package catalog loads the read-only inputs that describe a course: the
// canonical slide catalog used by the matcher and the clip registry that lists
// every recorded clip per semester.
//
// Both files are JSON objects whose key order carries meaning. The catalog's
// record order is the matcher's tie-break and the registry's clip order is
// the aligner's, so both are decoded with a token stream instead of into Go
// maps.
package catalog
