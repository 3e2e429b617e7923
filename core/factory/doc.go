// Package factory lets pluggable modules, such as metrics sinks, be chosen by
// name from configuration. Implementations register a Factory under a type
// name; configuration then lists ModuleConfig entries that Create resolves.
//
// Registering a sink next to its implementation:
//
//	func init() {
//	    _ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
//	        var c PromConfig
//	        if err := factory.Decode(conf, &c); err != nil {
//	            return nil, err
//	        }
//	        return NewPromSink(c)
//	    })
//	}
//
// and selecting it in config.yaml:
//
//	metrics:
//	  sinks:
//	    - type: prometheus
//	      conf:
//	        pushgateway_url: http://localhost:9091
package factory
