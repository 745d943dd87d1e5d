// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Components receive a named child logger instead of reaching for a global:
//
//	logger := logging.NewDefault()
//	controller := session.New(session.Options{Logger: logger.Component("session")})
//
// Tab fields attach the originating document to editor errors and warnings:
//
//	log.Warn("tab warning", logging.Tab(tab)...)
package logging
