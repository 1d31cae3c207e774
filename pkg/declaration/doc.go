// Package declaration reads router declaration trees from files and checks
// them before they reach a Manager.
//
// Files may be YAML, JSON or TOML. All three share the key names of
// domain.Declaration:
//
//	name: app
//	children:
//	  scene:
//	    - name: home
//	      default_action: show
//	    - name: settings
//
// YAML files keep the order in which child types are written. JSON and TOML
// objects are unordered, so child types there follow child_order when given
// and sort alphabetically otherwise.
package declaration
