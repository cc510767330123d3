package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Locker          = (*MemoryLocker)(nil)
	_ LockHandle      = (*memoryLockHandle)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
