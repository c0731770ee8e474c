// Package domain contains the core entities of the Smart Explorer service:
// scenes and their items and prompts, learning sessions, the append-only turn
// log and the per-user reward aggregate. It also defines the error taxonomy
// shared by the service and API layers.
//
// The adaptive engine that operates on these types lives in the engine
// subpackage.
package domain
