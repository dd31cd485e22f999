// Package compiler translates a small block-structured language into
// three-address code in a single pass.
//
// Pipeline: source → Lexer (Scanner) → Parser (parse = translate) → ir.Sink
//
// Conditions are translated as jumping code: a boolean expression is never
// computed into a value to be tested, it directs control to one of two
// labels instead. Labels are defined in the stream only when something jumps
// to them.
package compiler
