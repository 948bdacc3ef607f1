/*
Package ports defines the driven ports of the automat runtime.

# Key Interfaces

  - SnapshotStore: persists serialized instances (memory, file, Redis).
  - DistributedLocker: serializes input handling for one instance across replicas.

RunSnapshotStoreContract is a reusable test suite for SnapshotStore adapters.
*/
package ports
