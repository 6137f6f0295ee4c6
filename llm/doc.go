// Package llm defines the provider abstraction used by agents and the
// router that picks a provider per request. Routing is a collaborator from
// the orchestrator's point of view: the graph and swarm layers never import
// this package directly, agents do.
package llm
