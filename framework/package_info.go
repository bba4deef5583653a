// Package framework contains the low-level infrastructure shared by every
// kind of check the harness can run. The base package holds the Logger types
// used to capture per-test debug output; the qatest subpackage provides the
// test scope, result accumulation, filtering and report logging.
//
// The general model is:
//
// 1. The harness resolves one effective configuration at startup and hands it
// to each suite through the test context.
//
// 2. Suites run inside qatest.T scopes, which behave like Go's testing.T:
// subtests, cleanups, skips and testify-compatible failure reporting.
//
// 3. Everything a test logs is captured per scope, so the runner can decide
// after the fact whether to print it (for example, only for failed tests).
package framework
