package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Правила анализа (W0001..W0999)
	ModuleMismatch                Code = 1
	RedundantAssignment           Code = 9
	MissingCompileWarnMissingSpec Code = 12
	UnspecificInclude             Code = 17
	InefficientLast               Code = 24
	ExpressionCanBeSimplified     Code = 30

	// Находки внешнего тайпчекера (T0000..)
	OracleUnknown           Code = 1000
	OracleIncompatibleTypes Code = 1001
	OracleOverloadedSpec    Code = 1002
	OracleFixme             Code = 1003
	OracleIgnore            Code = 1004
	OracleNowarn            Code = 1005
)

var (
	codeName = map[Code]string{
		UnknownCode:                   "unknown",
		ModuleMismatch:                "module_mismatch",
		RedundantAssignment:           "redundant_assignment",
		MissingCompileWarnMissingSpec: "compile_warn_missing_spec",
		UnspecificInclude:             "unspecific_include",
		InefficientLast:               "inefficient_last",
		ExpressionCanBeSimplified:     "expression_can_be_simplified",
		OracleUnknown:                 "eqwalizer",
		OracleIncompatibleTypes:       "incompatible_types",
		OracleOverloadedSpec:          "eqwalizer_overloaded_spec",
		OracleFixme:                   "eqwalizer_fixme",
		OracleIgnore:                  "eqwalizer_ignore",
		OracleNowarn:                  "eqwalizer_nowarn",
	}

	codeDescription = map[Code]string{
		UnknownCode:                   "Unknown diagnostic",
		ModuleMismatch:                "Module name does not match file name",
		RedundantAssignment:           "Assignment of one variable to another",
		MissingCompileWarnMissingSpec: "Missing warn_missing_spec_all compile option",
		UnspecificInclude:             "Include path is not app-qualified",
		InefficientLast:               "Intermediate reverse to find the last element",
		ExpressionCanBeSimplified:     "Expression can be simplified",
		OracleUnknown:                 "Type checker finding",
		OracleIncompatibleTypes:       "Incompatible types",
		OracleOverloadedSpec:          "Overloaded spec",
		OracleFixme:                   "Type checker fixme escape hatch",
		OracleIgnore:                  "Type checker ignore escape hatch",
		OracleNowarn:                  "Type checker nowarn escape hatch",
	}

	byName = func() map[string]Code {
		m := make(map[string]Code, len(codeName))
		for c, n := range codeName {
			m[n] = c
		}
		return m
	}()
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic > 0 && ic < 1000:
		return fmt.Sprintf("W%04d", ic)
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("T%04d", ic-1000)
	}
	return "E0000"
}

// Name is the snake_case identifier accepted in suppression annotations and config.
func (c Code) Name() string {
	if n, ok := codeName[c]; ok {
		return n
	}
	return codeName[UnknownCode]
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// IsOracle reports whether the code belongs to the external type checker.
func (c Code) IsOracle() bool {
	return c >= 1000 && c < 2000
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts either the ID ("W0030") or the name ("expression_can_be_simplified").
func ParseCode(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownCode, false
	}
	if c, ok := byName[strings.ToLower(s)]; ok && c != UnknownCode {
		return c, true
	}
	var n int
	switch {
	case len(s) == 5 && (s[0] == 'W' || s[0] == 'w'):
		if _, err := fmt.Sscanf(s[1:], "%04d", &n); err != nil || n == 0 {
			return UnknownCode, false
		}
	case len(s) == 5 && (s[0] == 'T' || s[0] == 't'):
		if _, err := fmt.Sscanf(s[1:], "%04d", &n); err != nil {
			return UnknownCode, false
		}
		n += 1000
	default:
		return UnknownCode, false
	}
	c := Code(n) //nolint:gosec // at most 10999
	if _, ok := codeName[c]; !ok {
		return UnknownCode, false
	}
	return c, true
}
