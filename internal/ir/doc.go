// Package ir provides the Sierra program model: identifiers, generic
// arguments, statements and functions.
//
// This package contains data definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. A Program is
// built once by an upstream stage and is treated as immutable afterwards.
//
// Key design constraints:
//   - Statement ids are plain 0-based indices into Program.Statements
//   - A VarID is bound once and consumed once inside a function body
//   - Concrete ids are derived from (generic id, args) and never assigned
//   - Digests use RFC 8785 canonical JSON and SHA-256 with domain separation
package ir
