// Package source discovers pieces from definition files.
//
// A definitions directory holds one file per piece:
//
//	# commands/ping.yaml
//	name: ping
//	factory: ping
//	cooldown: 5
//	aliases: [p]
//
// The factory named in the file supplies the behaviour:
//
//	factories := source.NewFactories()
//	factories.Register("ping", func(env piece.Env, spec source.Spec) (piece.Piece, error) {
//		opts := spec.CommandOptions()
//		opts.Run = ping
//		return piece.NewCommand(env, opts)
//	})
//
//	commands := pool.NewCommandPool("commands", host, &source.Dir{
//		Path:      "pieces/commands",
//		Kind:      piece.KindCommand,
//		Factories: factories,
//	})
//
// Files are read in lexical order, so a later file defining the same name
// replaces the earlier one.
package source
