package querydoc

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for document loading.
const (
	ErrCodeRead       = "Q001" // file could not be read
	ErrCodeParse      = "Q002" // YAML/JSON/CUE syntax or build error
	ErrCodePredicate  = "Q003" // malformed predicate
	ErrCodeValue      = "Q004" // malformed comparison value
	ErrCodeOrder      = "Q005" // malformed order key
	ErrCodeNoDocument = "Q006" // file holds no query document
	ErrCodeFormat     = "Q007" // unknown file extension
)

// LoadError reports a query document or field table that could not be
// loaded. Path is the dotted location inside the document, e.g.
// "where.all[1].value".
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

func loadErr(code, path, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// cueErr converts a CUE error, keeping the first source position.
func cueErr(err error) *LoadError {
	le := &LoadError{Code: ErrCodeParse, Message: err.Error()}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}
