// Package http provides HTTP handlers and routing for the deskshell API.
//
// Endpoints:
//   - Health: /health
//   - Workspace: /api/workspace, /api/tabs, /api/tabs/:id/dirty
//   - Providers: /api/providers
//   - Actions: /api/actions, /api/context-menu
//   - Deployment: /api/deploy (?async=true runs in the background)
//
// Example Usage:
//
//	handlers := http.NewHandlers(controller, store, surface, catalog, deployer, logger)
//	handlers.Register(router)
package http
