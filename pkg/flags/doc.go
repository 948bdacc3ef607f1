/*
Package flags models composite states built from independent flags.

A Space is the cartesian product of its flags' domains. Transitions are
usually declared against partial assignments ("whenever power is off"), and
Expand turns each one into a concrete transition per matching full state,
carrying undeclared flags forward unchanged.

Serialize and Unserialize bridge full states to plain maps keyed by each
flag's serialized alias, for persistence and transport.
*/
package flags
