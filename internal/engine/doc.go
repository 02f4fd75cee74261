// Package engine checks candidate itineraries against trip IR documents.
//
// Check is the pure core: it walks every constraint slot of a document in
// declaration order, evaluates present slots against the matching candidate
// context and collects a Report. Absent slots are satisfied without calling
// the evaluator.
//
// Engine wraps Check with the stateful parts:
//   - structural validation of the document before checking
//   - loading option records (attractions, hotels, restaurants) for each
//     stage's destination city from a RecordSource
//   - run IDs from a RunIDGenerator (UUIDv7 by default)
//   - persistence of the document and the run, stamped by a logical Clock
//
// Stored runs hold the candidate after records were loaded, so Replay can
// re-check a run from the store alone and compare outcomes slot by slot.
package engine
