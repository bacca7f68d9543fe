package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every metric is registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.blocksProcessed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(f.GetName(), ShouldStartWith, "test_unit_")
				}
			})
		})

		Convey("When empty options are applied", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "neuro")
				So(manager.subsystem, ShouldEqual, "pipeline")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When blocks are processed", func() {
			before := testutil.ToFloat64(globalManager.samplesProcessed)
			RecordBlockProcessed(125, 0.4)
			RecordBlockProcessed(10, 0.1)

			Convey("Then samples accumulate", func() {
				So(testutil.ToFloat64(globalManager.samplesProcessed)-before, ShouldEqual, 135)
			})
		})

		Convey("When detection events are recorded", func() {
			before := testutil.ToFloat64(globalManager.detectionEvents.WithLabelValues("blink"))
			RecordDetectionEvent("blink")
			UpdateDetectionSuppressed("blink", 7)

			Convey("Then they are counted by kind", func() {
				So(testutil.ToFloat64(globalManager.detectionEvents.WithLabelValues("blink"))-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.detectionSuppressed.WithLabelValues("blink")), ShouldEqual, 7)
			})
		})

		Convey("When a rhythm reading is recorded", func() {
			RecordRhythmReading(12, 4, 3)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.rhythmAlpha), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.rhythmBeta), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.rhythmRatio), ShouldEqual, 3)
			})
		})

		Convey("When operational metrics are updated", func() {
			So(func() {
				RecordEmptyPull()
				RecordMalformedBlock()
				RecordSourceBlock("synthetic")
				RecordSourcePullError("nats")
				RecordSinkPublished("mqtt")
				RecordSinkError("mqtt")
				RecordSinkDropped("mqtt")
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 0.2)
				RecordErrorByComponent("worker", "process")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
		})

		Convey("Then the registry is the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global manager reconfigured at startup", t, func() {
		Configure(WithNamespace("eeg"), WithSubsystem("lab"), WithHistogramBuckets([]float64{1, 5}))
		defer Configure()

		RecordBlockProcessed(4, 2)

		Convey("Then the served registry carries the configured names", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["eeg_lab_samples_processed_total"], ShouldBeTrue)
			So(names["neuro_pipeline_samples_processed_total"], ShouldBeFalse)
			So(globalManager.histogramBuckets, ShouldResemble, []float64{1, 5})
			So(testutil.ToFloat64(globalManager.samplesProcessed), ShouldEqual, 4)
		})
	})
}
