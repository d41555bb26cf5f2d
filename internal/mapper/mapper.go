// Package mapper drives the property adapters over whole records and
// batches of records.
//
// Reading is all-or-nothing: malformed legacy text aborts the batch with a
// parse error naming the offending record. Writing isolates records: a
// record whose values cannot be expressed in the legacy format yields a
// failed Result, and the rest of the batch is still converted.
package mapper

import (
	"time"

	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
)

// DefaultProdID is written when a record carries no prodId of its own.
const DefaultProdID = "-//jmap-bridge//EN"

// LegacyInput is one vCard or iCalendar text identified by the caller.
type LegacyInput struct {
	ID   string
	Data string
}

// Record is one converted record carrying the caller's identifier.
type Record[T any] struct {
	ID   string
	Data T
}

// CreateRequest is one structured record to convert back to legacy text.
type CreateRequest[T any] struct {
	ID   string
	Data T
}

// Result is the outcome of converting one CreateRequest. Data holds the
// legacy text when Err is nil.
type Result struct {
	ID   string
	Data string
	Err  error
}

// OK reports whether the record was converted.
func (r Result) OK() bool {
	return r.Err == nil
}

// Options configures a mapper.
type Options struct {
	Logger logging.Logger
	ProdID string
	// Now stamps DTSTAMP on written events. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.ProdID == "" {
		o.ProdID = DefaultProdID
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

var errMissingRecord = errors.MappingError("record is missing")

// parseFailure attaches the record identifier to a parse error.
func parseFailure(id string, err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.WithContext("record_id", id)
	}
	return errors.ParseError("failed to parse record", err).WithContext("record_id", id)
}

// failed logs a record-level write failure and returns its Result.
func failed(logger logging.Logger, id string, err error) Result {
	logger.Error("Record not converted", err, logging.Record(id))
	return Result{ID: id, Err: err}
}
