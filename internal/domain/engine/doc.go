// Package engine implements the adaptive "Smart Explorer" rules: the
// difficulty controller, the scorer, the prompt selector and the reward
// ledger.
//
// Everything here is deterministic given its inputs. Time is always passed in,
// randomness is delegated to a PromptSampler, and all constants come from a
// Params value so tests can override them.
package engine
