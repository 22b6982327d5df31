package health

import "context"

// Pinger checks availability of a backend or store.
type Pinger interface {
	Ping(ctx context.Context) error
}
