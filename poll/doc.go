// Package poll implements a synchronous readiness multiplexer over socket
// descriptors.
//
// An Engine keeps one watch set per direction. Each watch set is a dense
// array of (descriptor, handle) entries indexed by descriptor, mirrored by a
// "desired" FdSet that is handed to the platform readiness primitive (see
// Bridge). After a successful Poll the "result" FdSet holds the descriptors
// found ready, and the caller drains them with IterFindings, HasNext and
// NextHandle.
//
// # Usage
//
//	e := poll.New()
//	defer e.Destroy()
//	_ = e.AddCheck(fd, poll.In, file)
//	if err := e.Poll(); err != nil {
//	    return err
//	}
//	_ = e.IterFindings(poll.In)
//	for e.HasNext() {
//	    ready := e.NextHandle(nil)
//	    ...
//	}
//
// # Ownership
//
// Handles are reference counted. The engine retains a handle once per entry
// it stores and releases it when the entry goes away (RemoveCheck, Clear,
// Destroy, or CopyFrom replacing old contents). Copies retain every entry
// they duplicate.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Confine it to one goroutine,
// for instance with the dispatch package.
package poll
