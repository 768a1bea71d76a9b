// Package kexpr implements the tri-valued Kconfig expression model: a tagged
// expression tree (Expression) plus a compiler that turns raw "depends on" /
// "default" / "select" condition text into one, against a caller-supplied
// symbol table.
//
// kexpr has no knowledge of the Kconfig entry tree itself — it depends only
// on the small Symbol interface below, so internal/kconf can implement it
// without creating an import cycle.
package kexpr
