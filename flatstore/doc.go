// Package flatstore keeps records in a single newline-delimited text
// file, one encoded record per line.
//
// The file is append-only: Initialize() resets it to empty, Append()
// adds one line and LoadAll() reads every line back in file order.
// There is no index; every read is a full scan.
//
//	s := flatstore.New("data/store.txt")
//	err := s.Append(record.Record{"day": "Mon", "high": "21"})
//	records, err := s.LoadAll()
//
// # Concurrency
//
// There is no locking. Each Append is a single write() to a file opened
// with O_APPEND so concurrent appends don't interleave within a line,
// but a LoadAll running concurrently with an Append may see a partial
// last line.
package flatstore
