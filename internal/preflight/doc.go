// Package preflight provides readiness checks for the binaries, directories,
// and input files lecturesync depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before starting and refuses to start
//     when a required check fails, so a batch does not die hours in.
//   - The CLI "lecturesync status" command renders every result.
//
// Checks for optional inputs (calendar table, download endpoint) are skipped
// when the corresponding feature is not configured.
package preflight
