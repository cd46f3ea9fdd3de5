package registry

// Service is the lifecycle contract for every long-running agent service.
// Start must not block beyond its own setup; Stop must not return until the
// service's goroutines have drained.
type Service interface {
	Start() error
	Stop() error
}
