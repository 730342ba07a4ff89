package diag

import "strings"

// List is an ordered collection of diagnostics from one compile invocation.
// A non-empty List is an error.
type List []*Diagnostic

// Error implements the error interface, joining all diagnostics.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}

	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// Has reports whether any diagnostic carries the given code.
func (l List) Has(code Code) bool {
	for _, d := range l {
		if d.Code == code {
			return true
		}
	}
	return false
}

// ByCode returns the diagnostics carrying the given code, in order.
func (l List) ByCode(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// ErrOrNil returns the list as an error, or nil when it is empty. Callers
// must not return a bare empty List as error: a typed nil-like value would
// compare non-nil.
func (l List) ErrOrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
