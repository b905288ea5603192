// Package extensions resolves generic type and libfunc ids to their
// concrete specializations.
//
// A Catalog maps each generic id to a constructor. Specializing
// (id, args) yields a ConcreteType or a ConcreteLibFunc with its
// LibFuncSignature; ProgramRegistry binds a catalog to one program and
// memoizes results.
//
// Concrete libfuncs form a closed set of variants. Consumers dispatch over
// them with LibFuncVisitor, which the compiler keeps exhaustive.
package extensions
