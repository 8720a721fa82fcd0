package core

import "time"

// Options tunes delivery and lifecycle behaviour.
type Options struct {
	HistoryWindow    time.Duration
	HistoryLimit     int
	MessageTTL       time.Duration
	SlowModeInterval time.Duration
	AutoCreateRooms  bool
	SweepInterval    time.Duration
	// InstanceTTL is how long an instance lease lasts without a heartbeat.
	// Heartbeats run every third of it.
	InstanceTTL      time.Duration
	PushTimeout      time.Duration
	PushConcurrency  int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		HistoryWindow:    24 * time.Hour,
		HistoryLimit:     200,
		MessageTTL:       24 * time.Hour,
		SlowModeInterval: 10 * time.Second,
		AutoCreateRooms:  true,
		SweepInterval:    time.Minute,
		InstanceTTL:      30 * time.Second,
		PushTimeout:      time.Second,
		PushConcurrency:  16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = d.HistoryWindow
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.MessageTTL <= 0 {
		o.MessageTTL = d.MessageTTL
	}
	if o.SlowModeInterval <= 0 {
		o.SlowModeInterval = d.SlowModeInterval
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = d.SweepInterval
	}
	if o.InstanceTTL <= 0 {
		o.InstanceTTL = d.InstanceTTL
	}
	if o.PushTimeout <= 0 {
		o.PushTimeout = d.PushTimeout
	}
	if o.PushConcurrency <= 0 {
		o.PushConcurrency = d.PushConcurrency
	}
	return o
}
