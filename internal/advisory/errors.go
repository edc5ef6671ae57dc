package advisory

import "errors"

// ErrComputation indicates the plan could not be derived from the sample
// and rule tables. The assembler recovers it into a fallback result.
var ErrComputation = errors.New("recommendation computation failed")
