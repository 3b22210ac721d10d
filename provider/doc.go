// Package provider manages swappable diarization backends. Factories are
// registered by name, initialized on demand and chosen per call either by
// a pinned default or by a priority list filtered on availability.
//
// Opt-in lifecycle:
//   - Initializable: providers that need setup (probe a worker, load a model)
//   - Closeable: providers that hold resources (connections, cache clients)
//
// # Usage
//
//	mgr := provider.NewManager(
//	    provider.NewRegistry[diarization.Provider](),
//	    provider.NewPrioritySelector[diarization.Provider]("remote", "local"),
//	    log,
//	)
//	_ = mgr.Register("local", local.Factory(cfg.Local, runner, log))
//	_ = mgr.Initialize(ctx, "local", nil)
//	p, _ := mgr.Get(ctx)
//	defer mgr.Close(ctx)
package provider
