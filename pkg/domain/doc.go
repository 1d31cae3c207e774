/*
Package domain contains the core types of the Arbor router tree engine.

It defines the entities shared by the engine, the templates and the adapters,
and is kept free of I/O and persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Location: the structured form of a serialized location (path segments + query).
  - Declaration: the user-authored description of a router subtree.
  - Config / TemplateConfig: resolved router configuration and template defaults.
  - Template: the action and reducer table registered for one router type.
  - Router: the view of a tree node handed to template functions.
  - RouterState / RouterSnapshot: the reducer output and its bounded history.
  - ActionContext: the immutable value threaded through one action cascade.
*/
package domain
