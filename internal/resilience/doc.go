// Package resilience provides reliability and fault tolerance patterns for the application.
// It currently contains circuit breaker implementations used to protect the
// database from cascading failures during batch job runs.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DBConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callDependency()
//	})
package resilience
