// Package server hosts the Fiber HTTP service that exposes the wheel cache
// inventory read-only. It owns the middleware chain (panic recovery, request
// ids, access logging, JSON errors); the routes subpackage attaches the
// inventory, summary and metrics handlers. Nothing here mutates the cache.
package server
