// Package dispatch turns inbound messages into command invocations.
//
// For every message the Pipeline:
//
//  1. runs each enabled monitor whose author filters accept the message
//  2. matches a trigger prefix (first configured match wins)
//  3. splits the remainder on whitespace
//  4. resolves the first token by command name, then alias
//  5. applies the cooldown gate; owners bypass it
//  6. refuses disabled commands
//  7. silently drops direct messages for commands that refuse them
//  8. refuses restricted commands outside restricted-content channels
//  9. runs the command
//
// Each stop is reported as an Outcome in the Result, optionally with the
// reply that was sent. Cooldowns are global per command: one invocation
// blocks every non-owner until it expires.
package dispatch
