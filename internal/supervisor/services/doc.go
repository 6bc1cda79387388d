// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package services provides suture.Service wrappers for Murmur components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and fmt.Stringer, which suture uses to name the service in its events.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Connection Registry (RegistryService):
  - Delegates to realtime.Registry.RunWithContext
  - Closes every socket when the messaging layer stops

Worker (WorkerService):
  - Adapts a plain func(ctx) error, e.g. the badger session store GC

The Redis presence mirror and the Redis and NATS ingest subscribers
implement suture.Service themselves and are added to the tree directly.

# Error Handling

Returning ctx.Err() after cancellation is a normal stop. Any other error
makes the supervisor restart the service with backoff.
*/
package services
