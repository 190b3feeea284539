// Package config provides a lightweight configuration layer for sigslot.
//
// Configuration is a flat map of keys to values, loadable from YAML or JSON
// files. Accessors are defensive: a missing or mistyped key yields the
// caller's default instead of an error, so a partial config file is always
// usable.
//
// Keys understood by sigslot.FromConfig:
//
//	name     string  signal name used in logs, metrics and spans
//	blocked  bool    create the signal with dispatch suppressed
//	metrics  bool    enable the OpenTelemetry metrics recorder
//	tracing  bool    enable the OpenTelemetry span manager
package config
