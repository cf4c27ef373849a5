package stats_test

import (
	"testing"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func record(b *stats.Bundle, t event.Type, eval event.Evaluation, player event.PlayerID, ctx stats.Context) {
	b.Record(event.Entry{Type: t, Evaluation: eval, Player: player}, ctx)
}

func TestTable(t *testing.T) {
	Convey("Given a fact table", t, func() {
		table := stats.NewTable[stats.Key]()
		table.Add(stats.Key{Type: event.TypeServe, Player: "7"})
		table.Add(stats.Key{Type: event.TypeServe, Player: "7"})
		table.AddN(stats.Key{Type: event.TypeServe, Player: "9"}, 3)

		Convey("When summing without filters", func() {
			So(table.Sum(), ShouldEqual, 5)
		})

		Convey("When summing under a filter", func() {
			So(table.Sum(stats.WithPlayer("7")), ShouldEqual, 2)
			So(table.Sum(stats.WithPlayer("9")), ShouldEqual, 3)
			So(table.Sum(stats.WithPlayer("11")), ShouldEqual, 0)
		})

		Convey("When querying lazily", func() {
			seen := 0
			for range table.Query(stats.WithType(event.TypeServe)) {
				seen++
			}
			So(seen, ShouldEqual, 2)
		})

		Convey("When merging another table", func() {
			other := stats.NewTable[stats.Key]()
			other.Add(stats.Key{Type: event.TypeServe, Player: "7"})
			other.Add(stats.Key{Type: event.TypePass, Player: "5"})
			table.Merge(other)

			Convey("Then counts sum pointwise", func() {
				So(table.Sum(stats.WithPlayer("7")), ShouldEqual, 3)
				So(table.Sum(), ShouldEqual, 7)
				So(table.Len(), ShouldEqual, 3)
			})
		})

		Convey("When cloning", func() {
			clone := table.Clone()
			clone.Add(stats.Key{Type: event.TypeDig})

			Convey("Then the original is untouched", func() {
				So(clone.Sum(), ShouldEqual, 6)
				So(table.Sum(), ShouldEqual, 5)
			})
		})
	})
}

func TestRecordPredicates(t *testing.T) {
	Convey("Given a stats bundle", t, func() {
		b := stats.NewBundle()
		sideOut := stats.Context{Phase: event.PhaseSideOut, Rotation: 2}

		Convey("When recording an attack off a clean reception", func() {
			pass := event.Entry{Type: event.TypePass, Evaluation: event.EvalPositive, Player: "5"}
			ctx := sideOut
			ctx.LastEvent = &pass
			record(b, event.TypeAttack, event.EvalPerfect, "7", ctx)

			Convey("Then the attack lands in events and attacks but not counter-attacks", func() {
				So(b.Events.Sum(stats.WithType(event.TypeAttack)), ShouldEqual, 1)
				So(b.Attacks.Sum(), ShouldEqual, 1)
				So(b.CounterAttacks.Sum(), ShouldEqual, 0)
			})

			Convey("And distribution keys on the reception grade", func() {
				So(b.Distribution.Sum(stats.WithEvaluation(event.EvalPositive)), ShouldEqual, 1)
			})

			Convey("And a phase and an earned point are tallied", func() {
				So(b.Counters.Sum(stats.WithCounter(stats.CounterPhase)), ShouldEqual, 1)
				So(b.Counters.Sum(stats.WithCounter(stats.CounterScoredPoint)), ShouldEqual, 1)
				So(b.Counters.Sum(stats.WithCounter(stats.CounterEarnedPoint)), ShouldEqual, 1)
			})
		})

		Convey("When recording an attack out of a dig", func() {
			dig := event.Entry{Type: event.TypeDig, Evaluation: event.EvalPositive, Player: "3"}
			ctx := sideOut
			ctx.LastEvent = &dig
			record(b, event.TypeAttack, event.EvalPositive, "7", ctx)

			Convey("Then it counts as a counter-attack", func() {
				So(b.CounterAttacks.Sum(), ShouldEqual, 1)
			})
		})

		Convey("When recording an attack in break phase", func() {
			record(b, event.TypeAttack, event.EvalPerfect, "7", stats.Context{Phase: event.PhaseBreak, Rotation: 0})

			Convey("Then it counts as a counter-attack", func() {
				So(b.CounterAttacks.Sum(), ShouldEqual, 1)
			})
		})

		Convey("When recording our errors", func() {
			record(b, event.TypeServe, event.EvalError, "7", sideOut)
			record(b, event.TypePass, event.EvalError, "5", sideOut)
			b.Record(event.Entry{Type: event.TypeFault}, sideOut)

			Convey("Then each lands in the errors table", func() {
				So(b.Errors.Sum(), ShouldEqual, 3)
				So(b.Errors.Sum(stats.WithType(event.TypeFault)), ShouldEqual, 1)
			})
		})

		Convey("When the opponent scores directly", func() {
			b.Record(event.Entry{Type: event.TypeOpponentScore}, sideOut)

			Convey("Then it is not one of our errors", func() {
				So(b.Errors.Sum(), ShouldEqual, 0)
			})
		})

		Convey("When the opponent errs", func() {
			b.Record(event.Entry{Type: event.TypeOpponentError}, sideOut)

			Convey("Then the gift is tallied but not as an earned point", func() {
				So(b.OpponentErrors.Sum(), ShouldEqual, 1)
				So(b.Counters.Sum(stats.WithCounter(stats.CounterScoredPoint)), ShouldEqual, 1)
				So(b.Counters.Sum(stats.WithCounter(stats.CounterEarnedPoint)), ShouldEqual, 0)
			})
		})

		Convey("When recording possessions", func() {
			record(b, event.TypePass, event.EvalPositive, "5", sideOut)
			record(b, event.TypeDig, event.EvalExclamative, "3", sideOut)
			record(b, event.TypeDig, event.EvalError, "3", sideOut)

			Convey("Then only non-error receptions and digs count", func() {
				So(b.Counters.Sum(stats.WithCounter(stats.CounterPossession)), ShouldEqual, 2)
			})
		})

		Convey("When recording a bookkeeping entry", func() {
			b.Record(event.Entry{Type: event.TypeSubstitution, Player: "5", Target: "9"}, sideOut)

			Convey("Then nothing is tallied", func() {
				So(b.Events.Sum(), ShouldEqual, 0)
			})
		})
	})
}

func TestDerivedMetrics(t *testing.T) {
	Convey("Given a bundle with recorded attacks", t, func() {
		b := stats.NewBundle()
		breakCtx := stats.Context{Phase: event.PhaseBreak, Rotation: 1}

		record(b, event.TypeAttack, event.EvalPerfect, "7", breakCtx)
		record(b, event.TypeAttack, event.EvalPerfect, "7", breakCtx)
		record(b, event.TypeAttack, event.EvalError, "7", breakCtx)
		record(b, event.TypeAttack, event.EvalPositive, "9", breakCtx)

		Convey("When asking for the kill percentage", func() {
			pct, ok := b.EventPercentage(event.TypeAttack, event.EvalPerfect)

			Convey("Then it reports share, total, and count", func() {
				So(ok, ShouldBeTrue)
				So(pct.Total, ShouldEqual, 4)
				So(pct.Count, ShouldEqual, 2)
				So(pct.Pct, ShouldEqual, 50.0)
			})
		})

		Convey("When filtering down to a player", func() {
			pct, ok := b.EventPercentage(event.TypeAttack, event.EvalPerfect, stats.WithPlayer("9"))
			So(ok, ShouldBeTrue)
			So(pct.Pct, ShouldEqual, 0.0)
			So(pct.Total, ShouldEqual, 1)
		})

		Convey("When no events match", func() {
			_, ok := b.EventPercentage(event.TypeServe, event.EvalPerfect)

			Convey("Then absence is reported, not a fake zero", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When computing attack efficiency", func() {
			eff, ok := b.AttackEfficiency()

			Convey("Then kills minus losses over swings", func() {
				So(ok, ShouldBeTrue)
				So(eff.Denominator, ShouldEqual, 4)
				So(eff.Value, ShouldEqual, 0.25)
			})
		})

		Convey("When computing positiveness", func() {
			score, ok := b.EventPositiveness(event.TypeAttack, stats.MetricEfficiency)
			So(ok, ShouldBeTrue)
			So(score.Score, ShouldEqual, 1.0)
			So(score.Total, ShouldEqual, 4)

			positive, ok := b.EventPositiveness(event.TypeAttack, stats.MetricPositive)
			So(ok, ShouldBeTrue)
			So(positive.Score, ShouldEqual, 3.0)
		})

		Convey("When the metric has no weight table", func() {
			_, ok := b.EventPositiveness(event.TypeFault, stats.MetricPositive)
			So(ok, ShouldBeFalse)
		})

		Convey("When computing counter-attack conversion", func() {
			rate, ok := b.CounterAttackConversionRate()

			Convey("Then only perfect counter-attacks convert", func() {
				So(ok, ShouldBeTrue)
				So(rate.Denominator, ShouldEqual, 4)
				So(rate.Value, ShouldEqual, 0.5)
			})
		})

		Convey("When computing phases per scored point", func() {
			ratio, ok := b.PhasesPerScoredPoint()
			So(ok, ShouldBeTrue)
			So(ratio.Value, ShouldEqual, 2.0)
		})

		Convey("When no points were earned", func() {
			empty := stats.NewBundle()
			_, ok := empty.PossessionsPerEarnedPoint()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given bundles from two sets", t, func() {
		first := stats.NewBundle()
		second := stats.NewBundle()
		ctx := stats.Context{Phase: event.PhaseSideOut, Rotation: 0}
		record(first, event.TypeServe, event.EvalPerfect, "7", ctx)
		record(second, event.TypeServe, event.EvalError, "7", ctx)

		Convey("When merged into a match total", func() {
			total := stats.NewBundle()
			total.Merge(first)
			total.Merge(second)

			Convey("Then derived metrics span both sets", func() {
				pct, ok := total.EventPercentage(event.TypeServe, event.EvalPerfect)
				So(ok, ShouldBeTrue)
				So(pct.Total, ShouldEqual, 2)
				So(pct.Count, ShouldEqual, 1)
			})
		})
	})
}
