/*
Package piecework hosts pluggable chat pieces: commands, event handlers,
monitors and scheduled tasks.

# Overview

A Client owns four pools, one per piece kind, plus the state dispatch needs:
trigger prefixes, owners, per-command cooldowns and a fault journal. It reads
raw events from a transport.Transport one at a time and routes them to the
event handlers. The built-in "coreMessage" handler runs every inbound message
through the dispatch pipeline; "coreOnceReady" completes the prefix and owner
sets once the connection has identified itself.

# Basic Usage

	mem := transport.NewMemory(64)
	client, err := piecework.New(
	    piecework.WithTransport(mem),
	    piecework.WithOptions(config.Options{Prefixes: []string{"!"}}),
	    piecework.WithCommandSource(pool.Static(NewPing)),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	if err := client.Start(ctx); err != nil {
	    log.Fatal(err)
	}
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    log.Fatal(err)
	}

# Pieces From Files

When options.PiecesDir is set, the commands, events, monitors and tasks
subdirectories are read for YAML or JSON definitions. Each definition names a
factory registered with WithFactories. Missing subdirectories are ignored.

# Faults

Errors and panics raised by event handlers never stop Run. When
options.DisplayErrors is set they are logged as "[Error]" and recorded in the
fault store. A piece with no run behaviour is a programming error: its panic
is not recovered.
*/
package piecework
