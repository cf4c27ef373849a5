package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording scouting metrics", func() {
			Convey("Then it should record applied, rejected, and duplicate events", func() {
				So(func() {
					RecordEventApplied()
					RecordEventRejected("illegal_type")
					RecordEventDuplicate()
					RecordEventUndone()
				}, ShouldNotPanic)
			})

			Convey("And it should record point and rotation counters", func() {
				So(func() {
					RecordPointScored("us")
					RecordPointScored("them")
					RecordRotation()
					RecordSubstitution()
					RecordApplyLatency(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording set lifecycle metrics", func() {
			So(func() {
				RecordSetStarted()
				RecordSetCompleted()
				UpdateActiveSets(3)
			}, ShouldNotPanic)
		})

		Convey("When recording replay metrics", func() {
			So(func() {
				RecordReplay()
				RecordReplayMismatch()
				RecordReplayDuration(12.5)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(1024)
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("events", "POST", "200")
				RecordHTTPRequestDuration("events", "POST", "200", 3.0)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the metrics package", t, func() {
		Convey("When fetching the registry", func() {
			Convey("Then it should return the custom registry", func() {
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
