package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("game"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"channel": "42"}),
				WithPrometheusRegistry(registry),
			)
			manager.submissions.WithLabelValues("accepted").Inc()

			Convey("Then collectors are registered with the options applied", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_game_submissions_total"], ShouldBeTrue)
				So(testutil.ToFloat64(manager.submissions.WithLabelValues("accepted")), ShouldEqual, 1)
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "tally")
				So(manager.subsystem, ShouldEqual, "counting")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGameMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When game events are recorded", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("wrong_number"))
			RecordSubmission("wrong_number")
			RecordReset("wrong_number")
			RecordPersonalBest()
			RecordRankImprovement()
			UpdateCurrentCount(41)
			UpdateParticipants(3)

			Convey("Then the collectors reflect them", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("wrong_number")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.currentCount), ShouldEqual, 41)
				So(testutil.ToFloat64(globalManager.participants), ShouldEqual, 3)
			})
		})

		Convey("When the dirty flag toggles", func() {
			UpdatePersistDirty(true)
			dirty := testutil.ToFloat64(globalManager.persistDirty)
			UpdatePersistDirty(false)

			Convey("Then the gauge follows", func() {
				So(dirty, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.persistDirty), ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsRecordingDoesNotPanic(t *testing.T) {
	Convey("Given every recording function", t, func() {
		So(func() {
			RecordIgnoredMessage("bot")
			RecordSubmissionLatency(2.5)
			RecordMessageProcessed()
			RecordMessageDuplicate()
			RecordPersistLatency("save", 1.2)
			RecordPersistSave("ok")
			RecordMessengerEffect("react", "ok")
			RecordHTTPRequest("/messages", "POST", "200")
			RecordHTTPRequestDuration("/messages", "POST", "200", 3)
			UpdateQueueSize(10)
			UpdateQueueCapacity(100)
			UpdateQueueUtilization(0.1)
			RecordQueueEnqueue()
			RecordQueueDequeue()
			RecordQueueEnqueueError()
			RecordQueueProcessingLatency(4)
			UpdateWorkerCount(1)
			UpdateWorkerActiveCount(1)
			RecordWorkerProcessingLatency(5)
			RecordWorkerError()
			RecordErrorByComponent("repository", "save_failed")
			RecordErrorByType("validation_error", "warning")
			RecordErrorByEndpoint("/rank", "GET", "not_found")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.3)
		}, ShouldNotPanic)
		So(GetRegistry(), ShouldNotBeNil)
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.messagesProcessed)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordMessageProcessed()
					UpdateQueueSize(j)
				}
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.messagesProcessed), ShouldEqual, before+1000)
	})
}
