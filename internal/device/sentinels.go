package device

import "errors"

// ErrTimeNotApplicable is returned by QueryTime on an adapter that has no
// way to report device time (depth cameras). The verifier treats it as a
// skip, not a failure.
var ErrTimeNotApplicable = errors.New("device does not support query_time")

// ErrRecordNotSupported is returned by Record on an adapter that has no
// video capability (depth cameras; out of scope per spec.md §4.1).
var ErrRecordNotSupported = errors.New("device does not support record")
