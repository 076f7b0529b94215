package ports

// ActivitySource streams user-activity notifications into the idle
// detector. Implementations own their goroutines and must stop delivering
// callbacks once Stop returns.
type ActivitySource interface {
	Start(onActivity func()) error
	Stop() error
}
