// Intercept virtual dispatch in a host process
//
// vhook models objects that live in a host application's memory as typed,
// non-owning handles, and rewrites entries of their virtual tables while
// keeping the previous function callable.
//
// The pieces fit together like this:
//
//   - Handle wraps a raw address. It never checks liveness or type.
//   - Table and Slot describe one cell of a virtual table and the Go function
//     type stored there. A Slot is the only place a cell is converted to a
//     callable value.
//   - Install swaps a replacement into a cell and returns a Hook whose
//     Original method calls through to the previous implementation.
//   - Attach runs a Plan once per process and publishes the Registry that
//     replacement callbacks read through Global.
//
// Layout drift is caught by the layout package at build and init time, not
// here. A wrong slot number or calling convention is undefined behavior.
//
// Limitations:
//   - Replacement callbacks run on host threads; they must not block on a
//     lock that a nested call through Original could also take.
//   - The GoCode convention only works with top-level functions. Closures
//     lose their captured variables.
//   - Handles are not invalidated when the host frees an object. See Pinned
//     for an opt-in check.
package vhook
