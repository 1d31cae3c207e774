/*
Package arbor keeps a tree of UI routers in sync with a single serialized
location such as "/home/settings?menu=true&panel=2".

Every router declares how it appears in the location: scenes own one path
segment and are mutually exclusive with their siblings, stacks keep an
ordered rank in the query, features are independent flags and data routers
carry a value. Showing or hiding a router rewrites the location; each
accepted location is reduced into a full state snapshot of the tree.

# Concept

The Manager is split along hexagonal lines. The location lives behind a
ports.LocationTransport (in memory, a JSON file, or Redis shared between
processes) and the computed state behind a ports.RouterStateStore. The core
never reads ambient state: the current location is always an argument.

Hiding a router remembers its value in a cache slot; when an ancestor is
shown again the subtree is rehydrated from the cache instead of running
default actions.

# Usage

	b := dsl.New("app")
	b.Root().Scene("home").Default(domain.ActionShow)
	b.Root().Scene("settings")
	b.Root().Feature("menu")

	decl := b.Build()
	m, err := arbor.New(decl)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	_ = m.Do(ctx, "settings", domain.ActionShow, domain.ActionOptions{})

	loc, _ := m.Location(ctx) // "/settings"
	link, _ := m.LinkTo("menu", domain.ActionShow, domain.ActionOptions{})
	fmt.Println(loc, link) // "/settings /settings?menu=true"

# Observability

Lifecycle hooks (WithLifecycleHooks) report every action, reducer pass,
cache write and rehydration; pkg/observability turns them into Prometheus
metrics. Each action also runs in an OpenTelemetry span.
*/
package arbor
