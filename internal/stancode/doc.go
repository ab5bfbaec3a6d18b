// Package stancode generates the Stan program used for reaction-order
// estimation.
//
// The program fits a log-linear model: log(rate) = intercept + rxn_ord *
// log(pressure) + noise. The generated text is deterministic, which makes it
// suitable both for content-addressed caching and for golden-file testing.
//
// Priors are held as a parameter-name -> expression table rather than raw
// statement text. A user override of the form "param ~ expression" replaces
// exactly the prior for that parameter; naming a parameter the template does
// not know is an error.
package stancode
