package translate

import (
	"errors"
	"fmt"
)

// ErrEmptyPhrase is returned when alternatives are requested for an empty
// phrase.
var ErrEmptyPhrase = errors.New("phrase is empty")

// TranslationError reports a failed translation. Stage failures are not
// distinguished beyond the stage name: callers either retry the whole
// request or give up.
type TranslationError struct {
	// Stage is the pipeline stage that failed: "validate", "extract",
	// "translate" or "adapt".
	Stage string
	Err   error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed at %s: %v", e.Stage, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// CorrectionSubmissionError wraps a correction store failure. It is only
// ever logged; SubmitTranslationCorrection never returns it.
type CorrectionSubmissionError struct {
	Err error
}

func (e *CorrectionSubmissionError) Error() string {
	return "correction submission failed: " + e.Err.Error()
}

func (e *CorrectionSubmissionError) Unwrap() error {
	return e.Err
}
