/*
Package config loads the startup Options of a piecework client from a YAML or
JSON file and PIECEWORK_* environment variables.

	opts, err := config.Load("bot.yaml") // "" skips the file
	if err != nil {
	    log.Fatal(err)
	}

A minimal file:

	prefix: ["!", "p."]
	owners: ["1234"]
	useSweeper: false

A scalar is accepted where a list is expected, so `prefix: "!"` works too.
Missing keys and values of the wrong type fall back to DefaultOptions.

# Environment Overrides

ApplyEnv (and Load, which calls it) reads PIECEWORK_PREFIX, PIECEWORK_OWNERS,
PIECEWORK_DISPLAY_ERRORS, PIECEWORK_USE_MENTION_PREFIX,
PIECEWORK_USE_USERNAME_PREFIX, PIECEWORK_USE_SWEEPER, PIECEWORK_FAULT_STORE and
PIECEWORK_PIECES_DIR. List values are comma separated. The environment wins over
the file.

Config, the raw decoded document, is read-only after FromFile and safe for
concurrent reads.
*/
package config
