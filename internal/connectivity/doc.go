// Package connectivity tracks whether the network is usable and how costly
// it is to use.
//
// A Monitor turns observed network paths into a State (connected, type,
// expensive), exposes the latest snapshot through Current, pushes changes to
// subscribers, and releases WaitForConnected callers on every transition into
// the connected state. Deferred fetches block on WaitForConnected.
package connectivity
