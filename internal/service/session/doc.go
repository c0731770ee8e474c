// Package session implements the session manager: it starts learning
// sessions, resolves prompts through the adaptive engine, and finalizes
// sessions, keeping the session row, the turn log and the reward aggregate
// consistent inside one transaction per call.
package session
