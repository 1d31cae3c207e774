/*
Package ports defines the driven ports (interfaces) of the Arbor engine.

These interfaces decouple the router tree engine from the medium that
persists the serialized location, from the store that publishes per-router
state to UI code, and from the sources router declarations come from.

# Key Interfaces

  - LocationTransport: persists the serialized location and notifies observers of changes.
  - RouterStateStore: holds the published per-router state and its bounded history.
  - DeclarationLoader: produces a router declaration tree (files, Loam repositories, code).
  - DistributedLocker: serializes action cascades across replicas sharing one transport.
  - RouterManager: the surface driving adapters (HTTP, MCP, CLI) use.
*/
package ports
