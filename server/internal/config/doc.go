// Package config loads the growthlab configuration from config.yaml and the
// environment, and watches the file for changes.
//
// Config fields:
//   - Server.HTTPPort   : port for the UI, REST API, WebSocket stream and /metrics (default 8080)
//   - Server.LogLevel   : debug | info | warn | error (default info)
//   - Server.Auth       : "apikey" or "none"; guards slider changes over the API and the stream
//   - Server.Session.TTL: idle time before a viewer session is evicted (default 30m)
//   - Server.StreamInterval: periodic view re-send to stream clients (default 30s, 0 disables)
//   - Dataset           : sample count, seed and model coefficients
//   - Slider            : start, stop, step, default value and label
//   - Chart             : figure width/height in inches and PNG DPI
//
// Load(path) applies defaults, unmarshals the YAML file (skipped when path is
// empty), applies GROWTHLAB_* environment overrides, then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config; a failed reload keeps the previous one.
package config
