package provider

import "context"

// Initializable is implemented by providers that probe or warm up before
// their first call. Manager.Initialize runs it and drops the provider on
// failure.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is implemented by providers holding connections or workers.
// Manager.Close runs it for every initialized provider.
type Closeable interface {
	Close(ctx context.Context) error
}
