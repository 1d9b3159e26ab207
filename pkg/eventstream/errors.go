package eventstream

import "errors"

// ErrNilVerdictEvent indicates a nil verdict event payload was provided to a publisher.
var ErrNilVerdictEvent = errors.New("nil verdict event")
