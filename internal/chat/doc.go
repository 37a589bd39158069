// Package chat is the presentation layer: it turns agent events into banners
// and text for the console and the web UI.
//
// A Consumer is the per-turn state machine over agent.Event values. It emits
// Render actions that a renderer draws; the console renderer writes styled
// lines, the HTTP server forwards them as Server-Sent Events. Sessions hold
// the role-tagged history for one conversation and live only in memory.
package chat
