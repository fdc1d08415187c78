package journal

import "errors"

// ErrJournalIO maps to the spec's JournalIO error kind: reading,
// writing, or locking the journal failed.
var ErrJournalIO = errors.New("journal io")
