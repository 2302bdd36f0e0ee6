// Package ws implements the WebSocket results feed for resultcard-server.
//
// Hub manages a set of connected clients and pushes result cards to them as
// they are created.
//
// New(results, origins) creates a Hub.
// Hub.Run(ctx) fans published results out to clients and blocks until ctx is
// cancelled, then closes all active connections.
// Hub.Publish(result) queues a result.created event; it never blocks the
// caller.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the newest
// results immediately on connect, then streams result.created events.
//
// Message format sent to clients:
//
//	{"event": "results",        "data": [ /* newest first, as GET /results */ ]}
//	{"event": "result.created", "data": { /* as POST /results response */ }}
//
// Clients whose send buffer fills up are disconnected. The endpoint is mounted
// at /ws/results by the server.
package ws
