// Package shutdown coordinates graceful process termination.
//
// Components register hooks as they start; on SIGINT, SIGTERM or an
// explicit Trigger the hooks run in reverse registration order under a
// shared deadline, so the listener stops before the ledger is persisted
// and the store closed.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("cache store", store.Close)
//	err := h.Wait()
package shutdown
