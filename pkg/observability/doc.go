/*
Package observability turns Manager lifecycle hooks into Prometheus metrics
and structured log lines.

Both helpers return a domain.LifecycleHooks value; combine them with
LifecycleHooks.Merge or pass each through arbor.WithLifecycleHooks, which
chains repeated registrations.
*/
package observability
