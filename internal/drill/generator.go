package drill

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/model"
	"github.com/okian/sideout/internal/domain/snapshot"
)

// Generation limits.
const (
	// maxEventsPerSet caps a generated set; a legal walk normally closes a
	// set well below this.
	maxEventsPerSet = 2000
	// bookkeepingChance is the 1-in-N chance of attempting a substitution
	// or role change between rallies.
	bookkeepingChance = 25
)

// Fixed roster used by generated sets.
var (
	rosterStarting = [6]event.PlayerID{"S", "OH1", "MB2", "OPP", "OH2", "MB1"}
	rosterSetter   = event.PlayerID("S")
	rosterLibero   = event.PlayerID("L")
	rosterFallback = event.PlayerID("L2")
	rosterBench    = []event.PlayerID{"B1", "B2", "B3", "B4", "B5", "B6"}
)

// GenerateSet walks a fresh snapshot with seeded randomness, producing a
// legal event sequence that closes the set. The same seed always yields
// the same script.
func GenerateSet(seed int64, setNumber int) (Script, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility matters more than entropy here

	d := snapshot.Descriptor{
		SetNumber:      setNumber,
		ServingUs:      rng.Intn(2) == 0,
		Starting:       rosterStarting,
		Setter:         rosterSetter,
		Libero:         rosterLibero,
		FallbackLibero: rosterFallback,
	}
	snap, err := snapshot.New(d)
	if err != nil {
		return Script{}, fmt.Errorf("descriptor rejected: %w", err)
	}

	script := Script{
		Setup: model.SetSetup{
			SetNumber:      d.SetNumber,
			ServingUs:      d.ServingUs,
			Starting:       playerStrings(d.Starting[:]),
			Setter:         string(d.Setter),
			Libero:         string(d.Libero),
			FallbackLibero: string(d.FallbackLibero),
		},
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < maxEventsPerSet; i++ {
		if _, done := snap.Winner(); done {
			break
		}
		e, ok := nextEntry(rng, snap, base.Add(time.Duration(i)*time.Second))
		if !ok {
			return Script{}, fmt.Errorf("no applicable event at step %d (legal: %v)", i, snap.Legal().Sorted())
		}
		script.Events = append(script.Events, model.Submission{
			SubmissionID: "drill-" + strconv.FormatInt(seed, 10) + "-" + strconv.Itoa(i),
			Timestamp:    e.Timestamp,
			Type:         string(e.Type),
			Evaluation:   string(e.Evaluation),
			Player:       string(e.Player),
			Target:       string(e.Target),
		})
	}

	script.FinalUs, script.FinalThem = snap.Score()
	if side, done := snap.Winner(); done {
		script.Complete = true
		script.Winner = string(side)
	}
	if !script.Complete {
		return Script{}, fmt.Errorf("set did not close within %d events", maxEventsPerSet)
	}
	return script, nil
}

// nextEntry picks a random legal entry and applies it. A rejected candidate
// leaves the snapshot untouched, so trial application is safe; the entry
// returned has already been applied.
func nextEntry(rng *rand.Rand, snap *snapshot.Snapshot, ts time.Time) (event.Entry, bool) {
	legal := snap.Legal().Sorted()
	rng.Shuffle(len(legal), func(i, j int) { legal[i], legal[j] = legal[j], legal[i] })

	// Bookkeeping types are legal between most rallies; keep them rare so
	// rallies dominate the script.
	ordered := make([]event.Type, 0, len(legal))
	deferred := make([]event.Type, 0, 3)
	for _, t := range legal {
		if event.IsBookkeeping(t) && rng.Intn(bookkeepingChance) != 0 {
			deferred = append(deferred, t)
			continue
		}
		ordered = append(ordered, t)
	}
	ordered = append(ordered, deferred...)

	for _, t := range ordered {
		for _, e := range candidates(rng, snap, t) {
			e.Timestamp = ts
			if _, err := snap.Apply(e); err == nil {
				return e, true
			}
		}
	}
	return event.Entry{}, false
}

// candidates builds plausible entries of the given type from the current
// lineup. Entries that the snapshot still refuses are skipped by the caller.
func candidates(rng *rand.Rand, snap *snapshot.Snapshot, t event.Type) []event.Entry {
	l := snap.Lineup()
	switch t {
	case event.TypeServe:
		return []event.Entry{{Type: t, Evaluation: pickEvaluation(rng), Player: l.Slots()[0]}}
	case event.TypePass, event.TypeDig:
		return []event.Entry{{Type: t, Evaluation: pickEvaluation(rng), Player: pickOnCourt(rng, snap, false)}}
	case event.TypeAttack:
		return []event.Entry{{Type: t, Evaluation: pickEvaluation(rng), Player: pickOnCourt(rng, snap, true)}}
	case event.TypeBlock:
		out := make([]event.Entry, 0, 3)
		for _, p := range frontRow(snap) {
			out = append(out, event.Entry{Type: t, Evaluation: pickEvaluation(rng), Player: p})
		}
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	case event.TypeFault, event.TypeOpponentScore, event.TypeOpponentError:
		return []event.Entry{{Type: t}}
	case event.TypeSubstitution:
		out := make([]event.Entry, 0, len(rosterBench))
		p := pickOnCourt(rng, snap, true)
		for _, b := range rosterBench {
			if !l.OnCourt(b) {
				out = append(out, event.Entry{Type: t, Player: p, Target: b})
			}
		}
		return out
	case event.TypeChangeSetter:
		return []event.Entry{{Type: t, Player: pickOnCourt(rng, snap, true)}}
	case event.TypeChangeLibero:
		return []event.Entry{{Type: t}}
	default:
		return nil
	}
}

// pickEvaluation returns a random evaluation grade.
func pickEvaluation(rng *rand.Rand) event.Evaluation {
	evals := event.Evaluations()
	return evals[rng.Intn(len(evals))]
}

// pickOnCourt returns a random on-court player, optionally excluding the
// libero for actions the libero may not take.
func pickOnCourt(rng *rand.Rand, snap *snapshot.Snapshot, excludeLibero bool) event.PlayerID {
	l := snap.Lineup()
	out := make([]event.PlayerID, 0, 7)
	for _, p := range l.Slots() {
		if l.OnCourt(p) {
			out = append(out, p)
		}
	}
	if !excludeLibero && l.OnCourt(l.Libero()) {
		out = append(out, l.Libero())
	}
	if len(out) == 0 {
		return ""
	}
	return out[rng.Intn(len(out))]
}

// frontRow lists the on-court front-row players excluding the libero.
func frontRow(snap *snapshot.Snapshot) []event.PlayerID {
	l := snap.Lineup()
	out := make([]event.PlayerID, 0, 3)
	for _, p := range l.Slots() {
		if l.OnCourt(p) && !l.IsBackRow(p) && p != l.Libero() {
			out = append(out, p)
		}
	}
	return out
}

func playerStrings(in []event.PlayerID) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = string(p)
	}
	return out
}
