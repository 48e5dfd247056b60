// Package main hosts the scanhub CLI entrypoint and command graph.
//
// The Cobra-based command tree covers team and membership administration,
// project and chapter management, workflow transitions, glossary upkeep, and
// configuration scaffolding. Commands operate directly on the store; the
// daemon serves the same operations over HTTP for remote clients.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
