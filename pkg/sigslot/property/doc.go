/*
Package property provides a reactive value layer on top of sigslot signals.

A Property owns a stack of value providers (Value), each a candidate source
of the property's resolved value. Exactly one provider is active at a time;
adding a provider pushes it to the top of the stack and activates it, and
removing the active provider promotes the last remaining one. Every change
of the resolved value fires the property's Changed signal.

Providers carry a write behavior. Keep providers survive a Discard call;
Discard providers are temporary bindings that collapse back to the nearest
Keep provider when the property's setter runs:

	def := property.NewStoredValue(property.Keep, 10)
	p := property.NewProperty(def, property.WithName("width"))

	p.Changed().Connect(func(w int) { fmt.Println("width:", w) })

	binding := property.NewStoredValue(property.Discard, 20)
	p.AddValue(ctx, binding) // width: 20

	p.Set(ctx, 42) // binding discarded, def now holds 42

State is the read-only variant: a single provider, set only by whoever holds
the provider handle.

Provider bookkeeping uses a reentrancy-safe container, so a provider may
detach itself from inside a change notification without corrupting the
stack.
*/
package property
