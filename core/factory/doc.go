// Package factory keeps named entries in registration order so that
// configuration can select an implementation by its type string. Decode
// turns the loose map found under a module's "conf" key into a typed struct.
//
//	sinks := factory.NewRegistry[factory.Factory[Sink]]()
//	_ = sinks.Register("influx", newInfluxSink)
//	s, err := factory.Build(sinks, factory.ModuleConfig{Type: "influx", Conf: conf})
package factory
