package ledger

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(
		NewMemStore,
		func(s *MemStore) Store { return s },
	),
)
