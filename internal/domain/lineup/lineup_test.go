package lineup_test

import (
	"testing"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/lineup"
	. "github.com/smartystreets/goconvey/convey"
)

var startingSix = [6]event.PlayerID{"S", "OH1", "MB2", "OPP", "OH2", "MB1"}

func serveBreak(l *lineup.Lineup, eval event.Evaluation, next event.Phase) (bool, error) {
	return l.ApplyEventSideEffects(event.Entry{Type: event.TypeServe, Evaluation: eval, Player: "S"}, next)
}

func TestNewLineup(t *testing.T) {
	Convey("Given a starting configuration", t, func() {
		Convey("When the six, setter, and libero are consistent", func() {
			l, err := lineup.New(startingSix, event.PhaseBreak, "S", "L")

			Convey("Then the lineup is built with the setter at slot 0", func() {
				So(err, ShouldBeNil)
				So(l.Rotation(), ShouldEqual, 0)
				So(l.Setter(), ShouldEqual, event.PlayerID("S"))
				So(l.Phase(), ShouldEqual, event.PhaseBreak)
			})

			Convey("And the libero covers the back-row middle from the start", func() {
				So(l.Slots()[5], ShouldEqual, event.PlayerID("L"))
				So(l.Idle(), ShouldEqual, event.PlayerID("MB1"))
			})
		})

		Convey("When the setter is not among the six", func() {
			_, err := lineup.New(startingSix, event.PhaseBreak, "X", "L")

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, lineup.ErrSetterNotInLineup)
			})
		})

		Convey("When the libero occupies a starting slot", func() {
			_, err := lineup.New(startingSix, event.PhaseBreak, "S", "MB1")

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, lineup.ErrLiberoInLineup)
			})
		})

		Convey("When the six contain a duplicate", func() {
			six := startingSix
			six[3] = "OH1"
			_, err := lineup.New(six, event.PhaseBreak, "S", "L")

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, lineup.ErrInvalidStartingSix)
			})
		})

		Convey("When no libero is designated", func() {
			_, err := lineup.New(startingSix, event.PhaseBreak, "S", "")

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, lineup.ErrMissingLibero)
			})
		})
	})
}

func TestRoles(t *testing.T) {
	Convey("Given a fresh lineup", t, func() {
		l, err := lineup.New(startingSix, event.PhaseBreak, "S", "L")
		So(err, ShouldBeNil)

		Convey("Then roles follow the slot offset from the setter", func() {
			role, err := l.RoleOf("S")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleSetter)

			role, err = l.RoleOf("OH1")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleOutsideHitter)

			role, err = l.RoleOf("OPP")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleOppositeHitter)

			role, err = l.RoleOf("MB2")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleMiddleBlocker)
		})

		Convey("Then the idle player keeps the covered slot's role", func() {
			role, err := l.RoleOf("MB1")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleMiddleBlocker)
		})

		Convey("Then the libero reports its own role", func() {
			role, err := l.RoleOf("L")
			So(err, ShouldBeNil)
			So(role, ShouldEqual, lineup.RoleLibero)
		})

		Convey("Then offset lookups substitute the idle player for the libero", func() {
			So(l.PlayerAtOffset(5), ShouldEqual, event.PlayerID("MB1"))
			So(l.PlayerAtOffset(2), ShouldEqual, event.PlayerID("MB2"))
		})

		Convey("Then back-row membership follows slots 0, 4, and 5", func() {
			So(l.IsBackRow("S"), ShouldBeTrue)
			So(l.IsBackRow("OH2"), ShouldBeTrue)
			So(l.IsBackRow("L"), ShouldBeTrue)
			So(l.IsBackRow("OH1"), ShouldBeFalse)
			So(l.IsBackRow("MB1"), ShouldBeFalse)
		})
	})
}

func TestRotationAndLibero(t *testing.T) {
	Convey("Given a lineup serving in break phase", t, func() {
		l, err := lineup.New(startingSix, event.PhaseBreak, "S", "L")
		So(err, ShouldBeNil)

		Convey("When the serve is lost", func() {
			rotated, err := serveBreak(l, event.EvalError, event.PhaseSideOut)

			Convey("Then no rotation occurs and the libero keeps slot 5", func() {
				So(err, ShouldBeNil)
				So(rotated, ShouldBeFalse)
				So(l.Rotation(), ShouldEqual, 0)
				So(l.Phase(), ShouldEqual, event.PhaseSideOut)
				So(l.Slots()[5], ShouldEqual, event.PlayerID("L"))
			})

			Convey("And winning the next rally rotates once clockwise", func() {
				rotated, err := l.ApplyEventSideEffects(
					event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPerfect, Player: "OPP"},
					event.PhaseBreak,
				)
				So(err, ShouldBeNil)
				So(rotated, ShouldBeTrue)
				So(l.Rotation(), ShouldEqual, 5)
				So(l.Slots()[0], ShouldEqual, event.PlayerID("OH1"))

				Convey("And the libero rotates along to the new covered slot", func() {
					So(l.Slots()[4], ShouldEqual, event.PlayerID("L"))
					So(l.Idle(), ShouldEqual, event.PlayerID("MB1"))
				})
			})
		})

		Convey("When rotations bring a middle blocker to serving duty", func() {
			// Walk side-out/break cycles until the setter reaches slot 4.
			steps := []event.Phase{
				event.PhaseSideOut, event.PhaseBreak, // rotation 0 -> 5
				event.PhaseSideOut, event.PhaseBreak, // rotation 5 -> 4
			}
			for _, next := range steps {
				_, err := l.ApplyEventSideEffects(
					event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPositive, Player: "OPP"},
					next,
				)
				So(err, ShouldBeNil)
			}

			Convey("Then the libero steps out and the idle middle returns", func() {
				So(l.Rotation(), ShouldEqual, 4)
				So(l.Phase(), ShouldEqual, event.PhaseBreak)
				So(l.OnCourt("L"), ShouldBeFalse)
				So(l.OnCourt("MB1"), ShouldBeTrue)
				So(l.Idle(), ShouldEqual, event.PlayerID(""))

				Convey("And the serving slot holds the other middle blocker", func() {
					So(l.Slots()[0], ShouldEqual, event.PlayerID("MB2"))
				})
			})

			Convey("And one more cycle brings the libero back in", func() {
				for _, next := range []event.Phase{event.PhaseSideOut, event.PhaseBreak} {
					_, err := l.ApplyEventSideEffects(
						event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPositive, Player: "OPP"},
						next,
					)
					So(err, ShouldBeNil)
				}
				So(l.Rotation(), ShouldEqual, 3)
				So(l.OnCourt("L"), ShouldBeTrue)
				So(l.Idle(), ShouldEqual, event.PlayerID("MB2"))
			})
		})

		Convey("Then at no point are two libero-covered slots occupied", func() {
			phases := []event.Phase{
				event.PhaseSideOut, event.PhaseBreak, event.PhaseSideOut, event.PhaseBreak,
				event.PhaseSideOut, event.PhaseBreak, event.PhaseSideOut, event.PhaseBreak,
			}
			for _, next := range phases {
				_, err := l.ApplyEventSideEffects(
					event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPositive, Player: "OPP"},
					next,
				)
				So(err, ShouldBeNil)
				count := 0
				for _, id := range l.Slots() {
					if id == "L" {
						count++
					}
				}
				So(count, ShouldBeLessThanOrEqualTo, 1)
			}
		})
	})
}

func TestSubstitutions(t *testing.T) {
	roster := []event.PlayerID{"S", "OH1", "MB2", "OPP", "OH2", "MB1", "L", "SUB1", "SUB2"}

	Convey("Given a lineup with bench players", t, func() {
		l, err := lineup.New(startingSix, event.PhaseBreak, "S", "L")
		So(err, ShouldBeNil)

		Convey("When a player has no substitution history", func() {
			available := l.AvailableReplacements(roster, "OH1")

			Convey("Then every unengaged bench player is available", func() {
				So(available, ShouldResemble, []event.PlayerID{"SUB1", "SUB2"})
			})

			Convey("And the libero and the idle player are never offered", func() {
				for _, id := range available {
					So(id, ShouldNotEqual, event.PlayerID("L"))
					So(id, ShouldNotEqual, event.PlayerID("MB1"))
				}
			})
		})

		Convey("When a substitution is recorded", func() {
			So(l.AddSubstitution("OH1", "SUB1"), ShouldBeNil)

			Convey("Then the bench player takes the slot", func() {
				So(l.Slots()[1], ShouldEqual, event.PlayerID("SUB1"))
				So(l.OnCourt("OH1"), ShouldBeFalse)
			})

			Convey("And only the original player can close the pair", func() {
				So(l.AvailableReplacements(roster, "SUB1"), ShouldResemble, []event.PlayerID{"OH1"})
				So(l.AddSubstitution("SUB1", "SUB2"), ShouldWrap, lineup.ErrNotAReplacement)
			})

			Convey("And closing the pair freezes both players", func() {
				So(l.AddSubstitution("SUB1", "OH1"), ShouldBeNil)
				So(l.AvailableReplacements(roster, "OH1"), ShouldBeNil)
				So(l.AddSubstitution("OH1", "SUB1"), ShouldWrap, lineup.ErrSubstitutionClosed)
			})

			Convey("And an engaged bench player cannot enter for someone else", func() {
				So(l.AddSubstitution("OH2", "OH1"), ShouldWrap, lineup.ErrNotAReplacement)
			})
		})

		Convey("When the setter is substituted", func() {
			So(l.AddSubstitution("S", "SUB1"), ShouldBeNil)

			Convey("Then the designation moves to the replacement", func() {
				So(l.Setter(), ShouldEqual, event.PlayerID("SUB1"))
				So(l.Rotation(), ShouldEqual, 0)
			})
		})

		Convey("When the libero is named on either side", func() {
			So(l.AddSubstitution("L", "SUB1"), ShouldWrap, lineup.ErrLiberoSubstitution)
			So(l.AddSubstitution("OH1", "L"), ShouldWrap, lineup.ErrLiberoSubstitution)
			So(l.AvailableReplacements(roster, "L"), ShouldBeNil)
		})

		Convey("When the substitution limit is exhausted", func() {
			pairs := [][2]event.PlayerID{
				{"OH1", "SUB1"}, {"SUB1", "OH1"},
				{"OH2", "SUB2"}, {"SUB2", "OH2"},
				{"MB2", "SUB3"}, {"OPP", "SUB4"},
			}
			for _, p := range pairs {
				So(l.AddSubstitution(p[0], p[1]), ShouldBeNil)
			}
			So(l.AddSubstitution("S", "SUB5"), ShouldWrap, lineup.ErrSubstitutionLimit)
			So(l.AvailableReplacements(roster, "S"), ShouldBeNil)
		})
	})
}

func TestChangeSetterAndLibero(t *testing.T) {
	Convey("Given a lineup", t, func() {
		l, err := lineup.New(startingSix, event.PhaseBreak, "S", "L")
		So(err, ShouldBeNil)

		Convey("When the setter designation changes", func() {
			So(l.ChangeSetter("OPP"), ShouldBeNil)

			Convey("Then the rotation follows the new setter", func() {
				So(l.Rotation(), ShouldEqual, 3)
			})
		})

		Convey("When the new setter is off court", func() {
			So(l.ChangeSetter("MB1"), ShouldWrap, lineup.ErrPlayerNotOnCourt)
		})

		Convey("When the setter changes after a rotation", func() {
			for _, next := range []event.Phase{event.PhaseSideOut, event.PhaseBreak} {
				_, err := l.ApplyEventSideEffects(
					event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPositive, Player: "OPP"},
					next,
				)
				So(err, ShouldBeNil)
			}
			So(l.Rotation(), ShouldEqual, 5)
			So(l.Slots()[4], ShouldEqual, event.PlayerID("L"))

			So(l.ChangeSetter("OH2"), ShouldBeNil)

			Convey("Then the libero moves to the recomputed covered slot", func() {
				So(l.Rotation(), ShouldEqual, 3)
				So(l.Slots()[5], ShouldEqual, event.PlayerID("L"))
				So(l.Slots()[4], ShouldEqual, event.PlayerID("MB1"))
				So(l.Idle(), ShouldEqual, event.PlayerID("S"))
			})

			Convey("And later rotations never carry the libero into the front row", func() {
				for i := 0; i < 12; i++ {
					for _, next := range []event.Phase{event.PhaseSideOut, event.PhaseBreak} {
						_, err := l.ApplyEventSideEffects(
							event.Entry{Type: event.TypeAttack, Evaluation: event.EvalPositive, Player: "OPP"},
							next,
						)
						So(err, ShouldBeNil)
					}
					if l.OnCourt("L") {
						So(l.IsBackRow("L"), ShouldBeTrue)
					}
					count := 0
					for _, id := range l.Slots() {
						if id == "L" {
							count++
						}
					}
					So(count, ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})

		Convey("When the libero is swapped for the fallback", func() {
			So(l.ChangeLibero("L2"), ShouldBeNil)

			Convey("Then the fallback takes over the covered slot", func() {
				So(l.Libero(), ShouldEqual, event.PlayerID("L2"))
				So(l.Slots()[5], ShouldEqual, event.PlayerID("L2"))
				So(l.OnCourt("L"), ShouldBeFalse)
			})
		})
	})
}
