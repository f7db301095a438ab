package mono

import (
	"fmt"

	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// InternalError is an internal consistency failure raised while populating a
// shell. It is carried by panic inside population and recovered at the
// registry boundary.
type InternalError struct {
	Code  diag.Code
	Shell symbols.SymbolID
	Site  source.Span
	Msg   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

func internalf(code diag.Code, shell symbols.SymbolID, format string, args ...any) *InternalError {
	return &InternalError{Code: code, Shell: shell, Msg: fmt.Sprintf(format, args...)}
}
