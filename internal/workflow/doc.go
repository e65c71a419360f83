// Package workflow drives the pipeline stages across every selected
// (course, semester) pair.
//
// The Manager resolves targets from the clip registry and runs extraction,
// slide matching, duration aggregation, and calendar alignment in that order.
// Extraction fans out across timeline stores with a bounded errgroup; clips
// inside one store run sequentially because the store has a single writer.
//
// Failures follow the services taxonomy: download, integrity, and decode
// errors abandon the clip and the batch continues; missing inputs skip the
// (course, semester) pair; a malformed calendar table or timeline store ends
// the run. Every clip attempt is recorded in the run ledger when one is
// attached.
package workflow
