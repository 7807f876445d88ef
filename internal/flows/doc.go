// Package flows holds the request flows the engine executes: credential
// issue, access validation, refresh rotation, and logout. Each flow is a
// pure function of its inputs and an explicit dependency struct, returning a
// classified failure kind instead of a host-level error; the root package
// owns the mapping to its sentinel taxonomy, metrics, and audit emission.
package flows
