// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package classify

import (
	"context"
	"testing"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/domain/player/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"
)

func TestClassify_Matrix(t *testing.T) {
	tests := []struct {
		name string
		url  string
		caps Capabilities
		want model.Strategy
	}{
		{name: "manifest engine", url: "https://cdn.example.com/live.m3u8", caps: Capabilities{EngineAvailable: true}, want: model.StrategyAdaptiveEngine},
		{name: "manifest no engine", url: "https://cdn.example.com/live.m3u8", caps: Capabilities{}, want: model.StrategyUnsupported},
		{name: "manifest native", url: "https://cdn.example.com/live.m3u8", caps: Capabilities{NativeHLS: true, EngineAvailable: true}, want: model.StrategyNativeDirect},
		{name: "manifest native no engine", url: "https://cdn.example.com/live.m3u8", caps: Capabilities{NativeHLS: true}, want: model.StrategyNativeDirect},
		{name: "progressive", url: "https://cdn.example.com/clip.mp4", caps: Capabilities{EngineAvailable: true}, want: model.StrategyNativeDirect},
		{name: "progressive no caps", url: "https://cdn.example.com/clip.mp4", caps: Capabilities{}, want: model.StrategyNativeDirect},
		{name: "uppercase suffix", url: "HTTPS://CDN.EXAMPLE.COM/LIVE/INDEX.M3U8", caps: Capabilities{EngineAvailable: true}, want: model.StrategyAdaptiveEngine},
		{name: "query ignored", url: "https://cdn.example.com/master.m3u8?token=abc", caps: Capabilities{EngineAvailable: true}, want: model.StrategyAdaptiveEngine},
		{name: "m3u8 in query only", url: "https://cdn.example.com/play?file=x.m3u8", caps: Capabilities{EngineAvailable: true}, want: model.StrategyNativeDirect},
		{name: "m3u8 in directory only", url: "https://cdn.example.com/a.m3u8/clip.mp4", caps: Capabilities{EngineAvailable: true}, want: model.StrategyNativeDirect},
		{name: "compound extension", url: "https://cdn.example.com/index.m3u8.gz", caps: Capabilities{EngineAvailable: true}, want: model.StrategyAdaptiveEngine},
		{name: "relative path", url: "streams/live.m3u8", caps: Capabilities{EngineAvailable: true}, want: model.StrategyAdaptiveEngine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url, tt.caps))
		})
	}
}

func TestDecide_Reasons(t *testing.T) {
	assert.Equal(t, ReasonProgressive, Decide("a.mp4", Capabilities{}).Reason)
	assert.Equal(t, ReasonNativeManifest, Decide("a.m3u8", Capabilities{NativeHLS: true}).Reason)
	assert.Equal(t, ReasonEngineManifest, Decide("a.m3u8", Capabilities{EngineAvailable: true}).Reason)
	assert.Equal(t, ReasonNoEngine, Decide("a.m3u8", Capabilities{}).Reason)
}

type fakeFactory struct{ supported bool }

func (f fakeFactory) IsSupported() bool { return f.supported }
func (f fakeFactory) New(ports.Tuning) (ports.Engine, error) { return nil, nil }

func TestProbeCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().CanPlayNatively(ports.HLSMimeType).Return(false)

	caps := ProbeCapabilities(sink, fakeFactory{supported: true})
	assert.Equal(t, Capabilities{NativeHLS: false, EngineAvailable: true}, caps)

	assert.Equal(t, Capabilities{}, ProbeCapabilities(nil, nil))
}

func TestDecideObserved_RecordsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	ctx := context.Background()
	DecideObserved(ctx, "https://x/live.m3u8", Capabilities{EngineAvailable: true})
	DecideObserved(ctx, "https://x/live.m3u8", Capabilities{EngineAvailable: true})
	DecideObserved(ctx, "https://x/clip.mp4", Capabilities{})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "acmplay_classify_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("strategy")
				counts[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts[string(model.StrategyAdaptiveEngine)])
	assert.Equal(t, int64(1), counts[string(model.StrategyNativeDirect)])
}
