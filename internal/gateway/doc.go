// Package gateway implements the client side of the Quaddle gateway: the
// persistent event-streaming transport of the chat service.
//
// # Overview
//
// The gateway is one full-duplex websocket carrying small JSON-tagged
// frames. This package provides two layers:
//
//   - Channel: one live socket. Dial, the identify handshake, typed sends,
//     and typed receives.
//   - Supervisor: the connection lifecycle. An infinite dial → identify →
//     pump → reconnect loop that survives every failure and reports what
//     happened on an update stream.
//
// # Supervisor
//
// Most callers only use the Supervisor:
//
//	sup, err := gateway.NewSupervisor("https://quaddle.example", token, gateway.Options{})
//	if err != nil {
//	    // bad endpoint: a configuration error, never retried
//	}
//	for update := range sup.Run(ctx) {
//	    switch u := update.(type) {
//	    case gateway.Connected:
//	        u.Handle.Subscribe(channelID)
//	    case gateway.Event:
//	        // decoded protocol event
//	    case gateway.Disconnected, gateway.ConnectionError:
//	        // a reconnect attempt follows automatically
//	    }
//	}
//
// # Update ordering
//
// For each connection epoch the stream delivers exactly one Connected,
// then zero or more Event / ReceiveError updates, then exactly one of
// Disconnected or ConnectionError before the cycle repeats. Failed
// connection attempts appear as ConnectionError on their own. The
// sequence repeats until the context passed to Run is cancelled;
// cancellation closes the active socket and ends the stream.
//
// # Command handles
//
// Each Connected update carries a Handle bound to that epoch's outbound
// queue. Handles are safe for concurrent use and may be copied around the
// application; once the epoch ends, Send reports false instead of
// delivering.
package gateway
