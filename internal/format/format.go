// Package format renders an individual to a stable text form and
// parses it back, for logging, diagnostics, and checkpoint files. The
// grammar is a plain sum of terms:
//
//	coefficient * kind(x0^exponent0 * x1^exponent1 * ...) + ...
//
// and is implementation-defined: the only contractual property is
// that Parse(Format(x)) evaluates identically to x.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ealione/turingforge/internal/function"
	"github.com/ealione/turingforge/internal/individual"
)

// ErrSyntax is returned for any input that does not match the grammar.
var ErrSyntax = fmt.Errorf("format: syntax error")

// Format renders ind as a deterministic sum-of-terms string.
func Format(ind *individual.Individual) string {
	var b strings.Builder
	for i := 0; i < ind.Length(); i++ {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(strconv.FormatFloat(ind.Coefficient[i], 'g', -1, 64))
		b.WriteString(" * ")
		b.WriteString(ind.Function[i].String())
		b.WriteString("(")
		for j, e := range ind.Exponent[i] {
			if j > 0 {
				b.WriteString(" * ")
			}
			fmt.Fprintf(&b, "x%d^%s", j, strconv.FormatFloat(e, 'g', -1, 64))
		}
		b.WriteString(")")
	}
	return b.String()
}

// Parse reverses Format, reconstructing an individual with Birth 0.
// It accepts only the exact shape Format produces; it does not handle
// arbitrary whitespace or operator precedence beyond the grammar
// above.
func Parse(s string) (*individual.Individual, error) {
	termStrs := strings.Split(s, " + ")
	if len(termStrs) == 0 || (len(termStrs) == 1 && strings.TrimSpace(termStrs[0]) == "") {
		return nil, fmt.Errorf("%w: empty input", ErrSyntax)
	}

	coeff := make([]float64, len(termStrs))
	fn := make([]function.Kind, len(termStrs))
	exponent := make([][]float64, len(termStrs))

	for i, term := range termStrs {
		parts := strings.SplitN(term, " * ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: term %q missing coefficient separator", ErrSyntax, term)
		}
		c, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: term %q: %v", ErrSyntax, term, err)
		}
		coeff[i] = c

		open := strings.IndexByte(parts[1], '(')
		if open < 0 || !strings.HasSuffix(parts[1], ")") {
			return nil, fmt.Errorf("%w: term %q missing function parens", ErrSyntax, term)
		}
		kindName := parts[1][:open]
		kind, err := kindFromName(kindName)
		if err != nil {
			return nil, err
		}
		fn[i] = kind

		inner := parts[1][open+1 : len(parts[1])-1]
		row, err := parseExponents(inner)
		if err != nil {
			return nil, err
		}
		exponent[i] = row
	}

	return individual.New(coeff, fn, exponent, 0)
}

func parseExponents(inner string) ([]float64, error) {
	if inner == "" {
		return nil, nil
	}
	factors := strings.Split(inner, " * ")
	row := make([]float64, len(factors))
	for i, factor := range factors {
		caret := strings.IndexByte(factor, '^')
		if caret < 0 {
			return nil, fmt.Errorf("%w: factor %q missing exponent", ErrSyntax, factor)
		}
		e, err := strconv.ParseFloat(factor[caret+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: factor %q: %v", ErrSyntax, factor, err)
		}
		row[i] = e
	}
	return row, nil
}

func kindFromName(name string) (function.Kind, error) {
	for _, k := range function.All {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown function name %q", ErrSyntax, name)
}
