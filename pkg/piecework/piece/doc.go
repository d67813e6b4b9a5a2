// Package piece defines the units of behaviour a piecework host loads.
//
// There are four kinds: Command, EventHandler, Monitor and Task. Each embeds
// Base, which carries the name, kind, owning pool and the enabled and loaded
// flags. The set of kinds is closed; Piece has an unexported method that only
// Base provides.
//
// Pieces are built by a Constructor, which receives an Env naming the owning
// host and pool:
//
//	func NewPing(env piece.Env) (piece.Piece, error) {
//		var cmd *piece.Command
//		cmd, err := piece.NewCommand(env, piece.CommandOptions{
//			Name:     "ping",
//			Cooldown: 5 * time.Second,
//			Run: func(ctx context.Context, inv *piece.Invocation) error {
//				return cmd.Reply(ctx, inv, "pong")
//			},
//		})
//		return cmd, err
//	}
//
// A piece built without a Run function panics with *NotImplementedError when
// invoked.
package piece
