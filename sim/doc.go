// Package sim provides the round-based item-passing simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - value.go: Value and the two Arithmetic strategies (residue mod lcm(D), exact big.Int)
//   - handler.go: Handler queue, transform, divisibility routing and DrainAndProcess
//   - engine.go: the round loop, immediate forwarding and the ranked report
//
// # Round Semantics
//
// Every round visits handlers in ascending id order. A visit drains the
// handler's queue to a fixed point: items forwarded back to the handler
// being visited are inspected again within the same visit. Forwards go
// straight to the target queue, so an item sent to a higher id is inspected
// later in the same round while an item sent to a lower id waits for the
// next round.
//
// # Value Representation
//
// With relief disabled the residue representation keeps every value modulo
// M = lcm of all handler divisors. Addition and multiplication commute with
// reduction mod M, and every divisor divides M, so each divisibility test
// is answered exactly at constant cost. Relief (floor division after the
// transform) needs the true magnitude; relief runs use the exact
// representation, and relief combined with residue is rejected by NewEngine.
//
// Sub-packages:
//   - sim/notes/: text notes and YAML adapters producing []HandlerDef
//   - sim/trace/: visit and routing-decision recording
package sim
