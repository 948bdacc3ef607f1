/*
Package domain contains the core data model shared by every automat package.

It is kept pure and free of I/O, following the same hexagonal layout as the
rest of the module: adapters depend on domain, never the other way around.

# Key Entities

  - State: an immutable set of (flag, value) pairs. Atomic states carry one
    pair under AtomKey; composite states carry one pair per flag.
  - Symbol: an input or output, compared by identity.
  - Transition: a declared edge (from, input, to, outputs).
  - Errors: ErrConfiguration, ErrNoTransition, ErrUnhandledInput and their
    typed counterparts.
  - LifecycleHooks: callbacks for observers of a running machine.
*/
package domain
