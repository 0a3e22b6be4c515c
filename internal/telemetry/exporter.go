package telemetry

import (
	"fmt"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CloudTraceOptions returns the provider options that export every span to
// Cloud Trace in projectID. An empty projectID yields no options and spans
// stay in process.
func CloudTraceOptions(projectID string) ([]sdktrace.TracerProviderOption, error) {
	if projectID == "" {
		return nil, nil
	}
	exporter, err := texporter.New(texporter.WithProjectID(projectID))
	if err != nil {
		return nil, fmt.Errorf("create cloud trace exporter: %w", err)
	}
	return []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	}, nil
}
