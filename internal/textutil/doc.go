// Package textutil provides text normalization and fuzzy string scoring.
//
// The scorers mirror the widely used ratio family:
//   - Ratio: normalized indel similarity, 100·2·LCS/(len(a)+len(b))
//   - PartialRatio: best Ratio of the shorter string against any equally long
//     window of the longer one, including windows clipped at either edge
//   - TokenSetRatio: Ratio over sorted token-set intersections and
//     differences, insensitive to word order and repetition
//
// All scores are in [0, 100] and operate on runes. LCS lengths are computed
// with a bit-parallel algorithm so comparing slide-sized texts stays cheap.
package textutil
