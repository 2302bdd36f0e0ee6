// Package config loads the server configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort: REST API, WebSocket feed and /metrics (default 3000)
//   - Server.GRPCPort: gRPC health service; 0 disables it (default 0)
//   - Server.RequestTimeout: per-request deadline (default 15s)
//   - Server.CORSOrigins: allowed origins (default ["*"])
//   - Store.Driver: memory | mongo | sqlite (default memory)
//   - Store.Mongo.URIEnv: environment variable holding the MongoDB URI (default MONGO_URI)
//   - Store.SQLite.Path: database file (default resultcard.db)
//   - Log.Level: debug | info | warn | error (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file on every write.
package config
