package thermdicom

import "errors"

// ErrWriteFailure wraps failures surfaced by the container writer or the
// filesystem while producing an output file. The dataset is fully serialized
// in memory first, so a write failure never leaves a truncated file behind.
var ErrWriteFailure = errors.New("write failure")
