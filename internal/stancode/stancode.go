package stancode

import (
	"fmt"
	"strings"
)

// Parameter names known to the reaction-order template.
const (
	ParamIntercept = "intercept"
	ParamOrder     = "rxn_ord"
	ParamSigma     = "sigma"
)

// prior pairs a parameter name with its distribution expression.
// Priors are kept as an ordered slice so the generated text is stable.
type prior struct {
	Param string
	Expr  string
}

// defaultPriors returns the template's default prior table.
// A fresh slice is returned on every call so callers can never alias or
// mutate shared defaults.
func defaultPriors() []prior {
	return []prior{
		{Param: ParamSigma, Expr: "cauchy(0, 10)"},
		{Param: ParamIntercept, Expr: "normal(10, 100)"},
		{Param: ParamOrder, Expr: "normal(0, 100)"},
	}
}

// ParamNames returns the model parameter names in declaration order.
func ParamNames() []string {
	return []string{ParamIntercept, ParamOrder, ParamSigma}
}

// UnknownParamError reports a prior override naming a parameter that is not
// part of the reaction-order template.
type UnknownParamError struct {
	Param    string
	Override string
}

func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("unknown parameter %q in prior override %q: template parameters are %s",
		e.Param, e.Override, strings.Join(ParamNames(), ", "))
}

// MalformedOverrideError reports a prior override that does not have the
// "param ~ expression" shape.
type MalformedOverrideError struct {
	Override string
}

func (e *MalformedOverrideError) Error() string {
	return fmt.Sprintf("malformed prior override %q: want \"param ~ expression\"", e.Override)
}

// ParseOverride splits a prior override string into parameter name and
// distribution expression. The split is on the first '~'; both sides are
// whitespace-trimmed and a trailing ';' on the expression is dropped.
func ParseOverride(override string) (param, expr string, err error) {
	lhs, rhs, found := strings.Cut(override, "~")
	if !found {
		return "", "", &MalformedOverrideError{Override: override}
	}
	param = strings.TrimSpace(lhs)
	expr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rhs), ";"))
	if param == "" || expr == "" {
		return "", "", &MalformedOverrideError{Override: override}
	}
	return param, expr, nil
}

// Generate produces the Stan program text for reaction-order estimation.
//
// Each entry in overrides must have the form "param ~ expression" and replaces
// the default prior for that parameter. Overriding a parameter the template
// does not declare returns UnknownParamError; a string without '~' returns
// MalformedOverrideError. With no overrides the output is the fixed default
// template.
func Generate(overrides []string) (string, error) {
	priors := defaultPriors()
	for _, override := range overrides {
		param, expr, err := ParseOverride(override)
		if err != nil {
			return "", err
		}
		idx := -1
		for i := range priors {
			if priors[i].Param == param {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", &UnknownParamError{Param: param, Override: override}
		}
		priors[idx].Expr = expr
	}
	return render(priors), nil
}

// render assembles the three program blocks around the given prior table.
func render(priors []prior) string {
	var b strings.Builder

	b.WriteString("data {\n")
	b.WriteString("  int<lower=0> N;\n")
	b.WriteString("  vector[N] x;\n")
	b.WriteString("  vector[N] y;\n")
	b.WriteString("}\n")

	b.WriteString("parameters {\n")
	b.WriteString("  real intercept;       // intercept of best fit line\n")
	b.WriteString("  real rxn_ord;         // slope of best fit line\n")
	b.WriteString("  real<lower=0> sigma;  // measurement error\n")
	b.WriteString("}\n")

	b.WriteString("model {\n")
	for _, p := range priors {
		fmt.Fprintf(&b, "  %s ~ %s;\n", p.Param, p.Expr)
	}
	b.WriteString("  y ~ normal(intercept + rxn_ord * x, sigma);\n")
	b.WriteString("}\n")

	return b.String()
}
