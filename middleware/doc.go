// Package middleware exposes net/http adapters over the authcore engine.
//
// [Guard] reads the Authorization bearer token, calls Engine.Validate, and
// injects the verified identity into the request context for handlers to
// read via [IdentityFromContext]. [CollapseError] maps engine errors to the
// HTTP status and message a transport should surface.
//
// This package translates HTTP semantics into engine calls and nothing
// more: it never parses tokens itself and never touches the session store.
package middleware
