// Package types provides the core types shared across the hive framework.
// This package has ZERO dependencies on other hive packages to avoid circular
// imports. All other packages should import types from here.
//
// The central type is RunState: the single mutable record threaded through
// every node of a run. A RunState is owned by exactly one executor at a time;
// its mutators are not safe for concurrent use and are not meant to be.
package types
