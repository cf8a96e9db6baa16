package observability

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownSampler is returned by Init for an unsupported sampler name.
var ErrUnknownSampler = errors.New("unknown trace sampler")

// Standard OpenTelemetry sampler environment variables.
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

var samplerNames = []string{
	"always_off",
	"always_on",
	"parentbased_always_off",
	"parentbased_always_on",
	"parentbased_traceidratio",
	"traceidratio",
}

// SamplerNames lists the accepted sampler names in sorted order.
func SamplerNames() []string {
	return slices.Clone(samplerNames)
}

func samplerByName(name string, ratio float64) (sdktrace.Sampler, bool) {
	switch name {
	case "always_on":
		return sdktrace.AlwaysSample(), true
	case "always_off":
		return sdktrace.NeverSample(), true
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio), true
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), true
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample()), true
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), true
	default:
		return nil, false
	}
}

// selectSampler resolves the sampler in order: DebugTrace, Config.Sampler,
// OTEL_TRACES_SAMPLER, then a ratio-only config, then parent-based always-on.
func selectSampler(cfg Config) (sdktrace.Sampler, error) {
	if cfg.DebugTrace {
		return sdktrace.AlwaysSample(), nil
	}

	name, ratio := cfg.Sampler, cfg.SampleRatio

	if name == "" {
		name = strings.ToLower(strings.TrimSpace(os.Getenv(envTracesSampler)))

		if arg := os.Getenv(envTracesSamplerArg); arg != "" && ratio == 0 {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err == nil {
				ratio = parsed
			}
		}
	}

	if name == "" {
		if ratio > 0 {
			name = "parentbased_traceidratio"
		} else {
			name = "parentbased_always_on"
		}
	}

	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	sampler, ok := samplerByName(name, ratio)
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownSampler, name, strings.Join(samplerNames, ", "))
	}

	return sampler, nil
}
