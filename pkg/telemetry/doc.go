// Package telemetry provides the observability stack of sassafras:
// structured logging (zerolog), tracing (OpenTelemetry) and metrics
// (Prometheus).
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Tracing.Exporter = "stdout"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//	tel.Logger.SetGlobal()
//
// # Tracing
//
// NewTracer installs its provider globally. Compiler parse and execute spans
// (sass.compiler.parse, sass.compiler.execute) are started from the global
// provider and therefore nest under the sass.compile span started by the
// command-line tool.
//
// # Metrics
//
// Metrics implements the recorder interface of package capi and feeds the
// compile cache counters:
//
//	sassafras_compilations_total{context,status}
//	sassafras_compile_duration_seconds{phase}
//	sassafras_handles_live{kind}
//	sassafras_contract_violations_total{kind}
//	sassafras_cache_lookups_total{result}
//
// Each Metrics value has a private registry served by Handler.
package telemetry
