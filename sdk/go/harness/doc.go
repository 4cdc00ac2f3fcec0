// Package harness is the Go client SDK for the silo test harness control
// plane. A test driver running outside the silo process uses it to inject
// per-endpoint message loss, read the live fault table, snapshot the
// grain directory, and resolve named providers through the boundary
// safety check.
//
// Usage:
//
//	h := harness.New(harness.WithBaseURL("http://127.0.0.1:7171"))
//	if err := h.Enable(ctx, "10.0.0.2:11111", 50); err != nil { ... }
//	defer h.DisableAll(ctx)
//
//	entries, err := h.QueryDirectory(ctx, "FooGrain")
//
// Not-found lookups return ErrNotFound; objects rejected at the isolation
// boundary surface as *BoundaryError.
package harness
