// Package search brute-forces a commit timestamp whose framed commit object
// hashes to a digest starting with a given prefix.
//
// The descending timestamp space below the base value is partitioned by
// residue class across workers. Each worker owns a private copy of the
// buffer and hash state, patches the timestamp digits in place, and reports
// its first match on a shared result channel. A single cancellation flag,
// written once by the first finder or by the coordinator, stops all workers.
package search
