package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/efreitasn/limitbook/internal/domain"
)

// Kind selects one of the three history streams stored in the journal.
type Kind string

const (
	KindSubmission Kind = "sub"
	KindExecution  Kind = "exec"
	KindError      Kind = "err"
)

func (k Kind) valid() bool {
	return k == KindSubmission || k == KindExecution || k == KindError
}

// ErrUnknownKind is returned when a scan names a stream that does not exist.
var ErrUnknownKind = errors.New("unknown journal kind")

// Journal is an append-only audit trail of drained book history backed by
// pebble. Records are JSON values keyed by kind and sequence, so a scan of
// one kind yields its entries in the order the book produced them.
type Journal struct {
	db *pebble.DB
}

// Open opens (or creates) a journal in dir.
func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening journal at %s: %w", dir, err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) AppendSubmissions(subs []domain.Submission) error {
	return appendAll(j, KindSubmission, subs, func(s domain.Submission) uint64 { return s.Seq })
}

func (j *Journal) AppendExecutions(execs []domain.Execution) error {
	return appendAll(j, KindExecution, execs, func(e domain.Execution) uint64 { return e.Seq })
}

func (j *Journal) AppendErrors(rejs []domain.Rejection) error {
	return appendAll(j, KindError, rejs, func(r domain.Rejection) uint64 { return r.Seq })
}

// appendAll writes records in a single synced batch: either all of them are
// persisted or none are.
func appendAll[T any](j *Journal, kind Kind, records []T, seqOf func(T) uint64) error {
	if len(records) == 0 {
		return nil
	}

	b := j.db.NewBatch()
	defer b.Close()

	for _, r := range records {
		val, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding %s record: %w", kind, err)
		}
		if err := b.Set(keyFor(kind, seqOf(r)), val, nil); err != nil {
			return fmt.Errorf("staging %s record: %w", kind, err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("committing %d %s records: %w", len(records), kind, err)
	}
	return nil
}

// Scan calls fn for every record of kind in sequence order. Iteration stops
// at the first error fn returns.
func (j *Journal) Scan(kind Kind, fn func(seq uint64, value []byte) error) error {
	if !kind.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	prefix := []byte(string(kind) + "/")
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte(string(kind) + "/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key(), prefix)
		if err != nil {
			return err
		}
		if err := fn(seq, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Submissions decodes every journaled submission.
func (j *Journal) Submissions() ([]domain.Submission, error) {
	return decodeAll[domain.Submission](j, KindSubmission)
}

// Executions decodes every journaled execution.
func (j *Journal) Executions() ([]domain.Execution, error) {
	return decodeAll[domain.Execution](j, KindExecution)
}

// Errors decodes every journaled rejection.
func (j *Journal) Errors() ([]domain.Rejection, error) {
	return decodeAll[domain.Rejection](j, KindError)
}

func decodeAll[T any](j *Journal, kind Kind) ([]T, error) {
	var out []T
	err := j.Scan(kind, func(seq uint64, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("decoding %s record %d: %w", kind, seq, err)
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// Count returns the number of records of kind.
func (j *Journal) Count(kind Kind) (int, error) {
	n := 0
	err := j.Scan(kind, func(uint64, []byte) error {
		n++
		return nil
	})
	return n, err
}

func keyFor(kind Kind, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s/%020d", kind, seq))
}

func parseKey(key, prefix []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(bytes.TrimPrefix(key, prefix)), "%d", &seq); err != nil {
		return 0, fmt.Errorf("malformed journal key %q: %w", key, err)
	}
	return seq, nil
}
