// Package service provides the business logic layer for the Life server.
//
// The service package implements:
//   - Multi-session board management, one engine instance per session
//   - Orchestration of engine lifecycle and grid mutations
//   - Seed pattern resolution and stamping
//   - Auto-persistence after state-changing operations
//   - Bridging engine events to transport-level sinks
//
// Core Interfaces:
//
// SimService is the main service interface providing high-level simulation
// operations. SessionManager handles session creation, retrieval, and
// lifecycle. PatternManager loads named seed patterns. EventSink receives
// engine events keyed by session for broadcast to UI clients.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP)
// and the simulation engine, providing session isolation and error mapping.
// Each session maintains its own engine instance with independent state;
// operations declined by the engine's lifecycle rules surface as
// OpResult.Applied == false rather than errors.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	patternMgr := pattern.NewManager("patterns")
//	simService := service.NewSimService(sessionMgr, patternMgr, hub)
//
//	info, err := simService.CreateSession(ctx, service.CreateOptions{
//		Size:    64,
//		Pattern: "glider",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	simService.Start(ctx, info.ID)
package service
