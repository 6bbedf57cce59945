// Package lang implements the calc language: a small imperative language of
// float64 arithmetic, variables, user-defined functions, conditionals and
// loops.
//
// # Pipeline
//
// Source text passes through three stages:
//
//  1. [Parse] matches the text against an ordered-choice grammar by
//     backtracking recursive descent and yields a concrete [Tree].
//  2. [Transform] rewrites the tree, bottom up, into an AST rooted at a
//     [*Program].
//  3. [Eval] walks the AST in an [*Env].
//
// [Compile] runs the first two stages and caches the result by source
// content. [Interpreter] runs all three against a persistent root
// environment.
//
// # Grammar
//
// Precedence from loosest to tightest is assignment, additive ("+" "-"),
// multiplicative ("*" "/") and primary (numbers, parentheses, calls,
// variables). Both operator levels recurse on the right, so
//
//	2 - 3 - 1
//
// means 2 - (3 - 1). Statements may be separated by ";" or newlines, and
// the separators are optional. The reserved words def, else, end, if and
// while are never identifiers.
//
// # Example
//
//	def fact(n)
//	  if n
//	    n * fact(n - 1)
//	  else
//	    1
//	  end
//	end
//	puts(fact(5))
//
// # Scoping
//
// Each user-defined call evaluates its body in a new frame holding only its
// parameters; the caller's variables are not visible. All frames of a run
// share one function table, so a function may call any function defined
// before the call executes, including itself.
//
// # Values
//
// Every expression yields a [Value]: a float64, or the absent value [Nil]
// for definitions, loops, an untaken conditional, an empty program and the
// builtins puts and print. A condition is true when it is nonzero.
package lang
