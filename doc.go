// Package flowkit is the state and configuration engine behind a visual
// automation-flow editor.
//
// A flow is a directed graph of typed nodes (triggers, actions, conditions,
// delays and webhooks) joined by edges. flowkit keeps the open flow in
// memory, enforces the invariants that keep it consistent while a user
// adds, connects and deletes nodes, walks the user through configuring new
// nodes, and writes the graph back to a storage service with debounced,
// local-first saves.
//
// # Core Concepts
//
//  1. FlowStore
//  2. Session
//  3. Wizard
//  4. GraphBuilder
//
// # FlowStore
//
// A FlowStore lists, fetches, creates, saves and deletes flows. The usual
// backend is a remote REST service (NewHTTPStore); embeddable backends are
// provided for tests and single-process deployments:
//
//   - In-memory
//   - SQLite
//   - Postgres
//   - Redis
//   - MongoDB
//
// # Session
//
// A Session holds one open flow. Its Store is the authoritative copy of the
// graph: every edit computes the next graph and installs it in one step,
// then re-arms a debounce timer; when the timer fires the latest full graph
// is written. At most one write is in flight, and a failed write keeps the
// local graph and reports the error through Store.Err.
//
// Edits go through Session.Ops:
//
//   - CreateNode, UpdateNode, MoveNode, DeleteNode (removes touching edges)
//   - Connect (derives the condition tag of the edge), DeleteEdge
//   - FindIncoming
//
// Session.Editor stages changes to one node in a scratch form and applies
// them on Save.
//
// Rendering layers call Session.Subscribe to receive a Snapshot after
// every change.
//
// # Wizard
//
// A Wizard configures a node before it is created. Delay and webhook nodes
// are created immediately with defaults; triggers and conditions take one
// step; actions branch on whatsapp or openai and take two or four steps.
//
//	w := session.NewWizard()
//	_, _ = w.Select(flowkit.KindAction)
//	_ = w.Choose("whatsapp")
//	_ = w.Choose("send_message")
//	id, err := w.Submit()
//
// # GraphBuilder
//
// GraphBuilder assembles a validated graph in code, for fixtures, seeds and
// imports.
//
// For runnable programs, see the /examples directory.
package flowkit
