// Package rules evaluates the ordered genre rule set against a track's
// resolved genres.
//
// Matching is a nested priority walk: genres in resolution order on the
// outside, rules in configuration order on the inside, first hit wins. There
// is no scoring; reordering rules in the configuration changes outcomes by
// design.
package rules
