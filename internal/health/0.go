package health

import "github.com/google/wire"

var Provider = wire.NewSet(NewMonitor)
