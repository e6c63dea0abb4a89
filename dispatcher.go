package pcore

// Dispatcher is the kernel's outbound-facing half of the
// external-interface boundary (spec.md §4.I): it issues commands,
// plan updates, and lookup-threshold subscriptions to the outside
// world. Implementations are expected to perform the actual I/O
// asynchronously and report results back through ExternalInterface's
// inbound methods, staged on the Driver's inbound queue.
type Dispatcher interface {
	// LookupNow requests a synchronous value for state, used when a
	// Lookup is registered and the cache has no known value or only one
	// older than the current cycle (StateCacheEntry.RegisterLookup's
	// staleness check).
	LookupNow(state State) Value

	// Subscribe asks the interface to start reporting asynchronous
	// changes for state, until Unsubscribe is called. Implementations
	// that only support synchronous polling may no-op this.
	Subscribe(state State)
	Unsubscribe(state State)

	// SetThresholds installs a LookupOnChange threshold band for
	// state: the interface should notify (via ExternalInterface's
	// LookupReturn) only when the true value would fall outside
	// [low, high]. Called whenever StateCacheEntry recomputes the
	// intersection of all registered lookups' tolerances.
	SetThresholds(state State, high, low Value)
	ClearThresholds(state State)

	// ExecuteCommand and ExecuteUpdate dispatch the named side
	// effecting operations; completion is reported asynchronously via
	// ExternalInterface's CommandReturn/AcknowledgeUpdate.
	ExecuteCommand(cmd *CommandBody)
	ExecuteUpdate(upd *UpdateBody)
	AbortCommand(cmd *CommandBody)
}

// ExternalInterface is the inbound-facing half of the boundary:
// asynchronous results arriving from outside the kernel are staged
// here, to be drained at the start of the next macro step. All methods
// are safe to call from any goroutine.
type ExternalInterface interface {
	LookupReturn(state State, value Value, timestamp uint32)
	CommandReturn(cmd *CommandBody, handle Value, result Value)
	AcknowledgeUpdate(upd *UpdateBody, ack bool)
}
