// Package vm evaluates dicelang programs.
//
// This package contains:
//   - the value model (integers, floats, complex numbers, strings, lists,
//     tuples, maps, functions and aliases)
//   - arithmetic, dice and reduction operators
//   - the scoping context and identifier resolution across storage tiers
//   - the tree-walking evaluator, builtins and plugins
//   - the storage literal codec
package vm
