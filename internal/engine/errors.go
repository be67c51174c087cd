package engine

import "fmt"

// RetrievalError wraps a provider failure during answer retrieval. The
// engine degrades to the fallback answer and logs it instead of
// returning it to the caller.
type RetrievalError struct {
	Stage string // "embed" or "generate"
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s failed: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
