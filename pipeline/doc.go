// Package pipeline assembles agents into the two shipped execution modes:
// Velocity, a graph pipeline for rapid prototyping, and Fortress, a swarm
// session hardened with policy scanning.
package pipeline
