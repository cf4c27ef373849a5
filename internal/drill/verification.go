package drill

import (
	"fmt"

	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/snapshot"
	"github.com/okian/sideout/internal/domain/types"
)

// VerifyDeterminism replays a script's events from scratch and checks that
// the rebuilt set lands on the same final state the generator recorded.
func VerifyDeterminism(script Script) error {
	d := snapshot.Descriptor{
		SetNumber:      script.Setup.SetNumber,
		ServingUs:      script.Setup.ServingUs,
		Setter:         event.PlayerID(script.Setup.Setter),
		Libero:         event.PlayerID(script.Setup.Libero),
		FallbackLibero: event.PlayerID(script.Setup.FallbackLibero),
	}
	if len(script.Setup.Starting) != len(d.Starting) {
		return fmt.Errorf("script setup lists %d starters", len(script.Setup.Starting))
	}
	for i, p := range script.Setup.Starting {
		d.Starting[i] = event.PlayerID(p)
	}

	entries := make([]event.Entry, len(script.Events))
	for i, sub := range script.Events {
		entries[i] = sub.Entry()
	}

	snap, err := snapshot.Rebuild(d, entries)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	us, them := snap.Score()
	if us != script.FinalUs || them != script.FinalThem {
		return fmt.Errorf("replayed %d-%d, generated %d-%d", us, them, script.FinalUs, script.FinalThem)
	}
	side, done := snap.Winner()
	if done != script.Complete {
		return fmt.Errorf("replayed completion %v, generated %v", done, script.Complete)
	}
	if done && string(side) != script.Winner {
		return fmt.Errorf("replayed winner %s, generated %s", side, script.Winner)
	}
	return nil
}

// VerifyServedView checks the view returned by the service against the
// locally generated final state.
func VerifyServedView(script Script, view types.SetView) error {
	if view.Score.Us != script.FinalUs || view.Score.Them != script.FinalThem {
		return fmt.Errorf("served %d-%d, generated %d-%d",
			view.Score.Us, view.Score.Them, script.FinalUs, script.FinalThem)
	}
	if view.Complete != script.Complete {
		return fmt.Errorf("served completion %v, generated %v", view.Complete, script.Complete)
	}
	if view.Winner != script.Winner {
		return fmt.Errorf("served winner %q, generated %q", view.Winner, script.Winner)
	}
	return nil
}
