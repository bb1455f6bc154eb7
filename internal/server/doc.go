// Package server hosts the Fiber HTTP service, request middleware chain, and
// dispatcher registry glue that maps URL names onto dispatch instances.
// It bootstraps Fiber, attaches request-ID and recover middlewares, injects
// the Registry built from config, and exposes router constructors that other
// packages (main, routes) can reuse. Future phases may extend this package
// with TLS or metrics endpoints, so keep exports narrow and accept explicit
// dependencies.
package server
