//go:build tools

package tools

// No generated-mock tooling is needed: internal/controller and
// internal/device tests use hand-written fakes (fakeBrain,
// fakeSender) against the narrow Sender/transport interfaces rather
// than generated mocks.
