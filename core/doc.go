// Package core provides the foundational domain types shared by every other
// roundtable package:
//
//   - Content / Part (role-based message payloads understood by model adapters)
//   - Message (one immutable transcript entry: chat text or a tool record)
//   - Transcript (append-only, totally ordered session history)
//   - Observer (console, archive and broadcast hooks)
//   - Sentinel and typed errors used across the scheduler and agents
//
// The package intentionally has no dependency on model providers or tools so
// that adapters and schedulers can be swapped without touching the data model.
package core
