// Package factory builds pluggable modules, such as metrics sinks, from
// configuration. A module is named by its type and configured by a raw map
// decoded with Decode into the module's own settings struct:
//
//	var sinks = factory.NewRegistry[metrics.MetricsSink]()
//	sinks.MustRegister("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ URL, Bucket string }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL, c.Bucket), nil
//	})
package factory
