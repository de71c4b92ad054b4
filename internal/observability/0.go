package observability

import "github.com/google/wire"

var Provider = wire.NewSet(NewMetrics, NewRecorder)
