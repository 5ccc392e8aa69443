// Package cell converts the string cells of a day plan row into the integer
// minutes and booleans used by the scheduler and back.
//
// Every parser in this package is total: malformed input degrades to zero or
// false instead of returning an error, so a half-typed row never stops a
// scheduling pass.
package cell
