package registry

import "github.com/google/wire"

var Provider = wire.NewSet(NewService)
