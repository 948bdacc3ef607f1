/*
Package session persists machine instances and serializes access to them.

Instances are not safe for concurrent use, so every operation on a stored
instance runs under a per-instance lock: a local reference-counted mutex and,
optionally, a distributed lock shared by every replica.
*/
package session
