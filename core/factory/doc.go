// Package factory is a small generic registry used to build pluggable
// modules, such as metrics sinks, from configuration. A module is described
// by a type name and a map of raw settings; the registered factory decodes
// the settings into a typed struct and returns the implementation.
//
//	reg := factory.NewRegistry[metrics.Sink]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.Sink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
