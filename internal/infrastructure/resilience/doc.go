/*
Package resilience provides the circuit breaker guarding outbound calls such
as deployments to a remote engine.

# Usage

	breaker := resilience.New("deploy", resilience.Settings{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	})

	err := breaker.Execute(func() error {
		return post(ctx)
	})

# States

	Closed --[FailureThreshold consecutive failures]-> Open
	Open --[OpenTimeout elapsed]-> HalfOpen
	HalfOpen --[HalfOpenProbes successes]-> Closed
	HalfOpen --[any failure]-> Open
*/
package resilience
