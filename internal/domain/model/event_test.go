package model_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/model"
)

func TestSubmissionEntry(t *testing.T) {
	convey.Convey("Given a wire submission", t, func() {
		ts := time.Date(2025, 10, 4, 18, 30, 0, 0, time.UTC)
		sub := model.Submission{
			SubmissionID: "sub-123",
			Timestamp:    ts,
			Type:         "attack",
			Evaluation:   "#",
			Player:       "OH1",
		}

		convey.Convey("the converted entry carries every field", func() {
			e := sub.Entry()
			convey.So(e.Timestamp, convey.ShouldEqual, ts)
			convey.So(e.Type, convey.ShouldEqual, event.TypeAttack)
			convey.So(e.Evaluation, convey.ShouldEqual, event.EvalPerfect)
			convey.So(e.Player, convey.ShouldEqual, event.PlayerID("OH1"))
			convey.So(e.Target, convey.ShouldBeEmpty)
		})

		convey.Convey("a substitution maps its target", func() {
			sub := model.Submission{
				SubmissionID: "sub-124",
				Type:         "substitution",
				Player:       "OH1",
				Target:       "SUB1",
			}
			e := sub.Entry()
			convey.So(e.Type, convey.ShouldEqual, event.TypeSubstitution)
			convey.So(e.Player, convey.ShouldEqual, event.PlayerID("OH1"))
			convey.So(e.Target, convey.ShouldEqual, event.PlayerID("SUB1"))
		})

		convey.Convey("an unknown type survives the mapping and fails validation later", func() {
			sub := model.Submission{Type: "timeout"}
			e := sub.Entry()
			convey.So(e.Validate(), convey.ShouldNotBeNil)
		})
	})
}
