package stats

import (
	"github.com/okian/sideout/internal/domain/event"
)

// Percentage is the result of a share-style lookup. Absence (ok == false)
// is distinct from a zero percentage: no matching events means no answer,
// never a misleading 0%.
type Percentage struct {
	Pct   float64
	Total int
	Count int
}

// Score is the result of a weighted positiveness lookup.
type Score struct {
	Pct   float64
	Total int
	Score float64
}

// Ratio is the result of dividing two table sums.
type Ratio struct {
	Value       float64
	Numerator   float64
	Denominator int
}

// PositivenessMetric selects the weight table for EventPositiveness.
type PositivenessMetric string

const (
	// MetricPositive weighs touches that kept full options open.
	MetricPositive PositivenessMetric = "positive"
	// MetricEfficiency weighs terminal touches against lost ones.
	MetricEfficiency PositivenessMetric = "efficiency"
)

// positiveWeights scores option-preserving touches per fundamental.
var positiveWeights = map[event.Type]map[event.Evaluation]float64{
	event.TypeServe:  {event.EvalPerfect: 1, event.EvalPositive: 1},
	event.TypePass:   {event.EvalPerfect: 1, event.EvalPositive: 1, event.EvalExclamative: 1},
	event.TypeAttack: {event.EvalPerfect: 1, event.EvalPositive: 1},
	event.TypeDig:    {event.EvalPerfect: 1, event.EvalPositive: 1, event.EvalExclamative: 1},
	event.TypeBlock:  {event.EvalPerfect: 1, event.EvalPositive: 1},
}

// efficiencyWeights scores terminal touches per fundamental: points won
// minus points lost.
var efficiencyWeights = map[event.Type]map[event.Evaluation]float64{
	event.TypeServe:  {event.EvalPerfect: 1, event.EvalError: -1, event.EvalOver: -1},
	event.TypePass:   {event.EvalPerfect: 1, event.EvalPositive: 1, event.EvalError: -1, event.EvalOver: -1},
	event.TypeAttack: {event.EvalPerfect: 1, event.EvalError: -1, event.EvalOver: -1},
	event.TypeDig:    {event.EvalPerfect: 1, event.EvalPositive: 1, event.EvalError: -1, event.EvalOver: -1},
	event.TypeBlock:  {event.EvalPerfect: 1, event.EvalError: -1, event.EvalOver: -1},
}

// EventPercentage returns the share of events of the given type carrying
// the given evaluation, under optional additional filters. ok is false when
// no events match.
func (b *Bundle) EventPercentage(t event.Type, eval event.Evaluation, filters ...Filter) (Percentage, bool) {
	scoped := append([]Filter{WithType(t)}, filters...)
	total := b.Events.Sum(scoped...)
	if total == 0 {
		return Percentage{}, false
	}
	count := b.Events.Sum(append(scoped, WithEvaluation(eval))...)
	return Percentage{
		Pct:   100 * float64(count) / float64(total),
		Total: total,
		Count: count,
	}, true
}

// EventPositiveness returns the weighted per-evaluation score for one
// fundamental, normalized over all matching events. ok is false when the
// fundamental has no weight table or no events match.
func (b *Bundle) EventPositiveness(t event.Type, metric PositivenessMetric, filters ...Filter) (Score, bool) {
	var weights map[event.Evaluation]float64
	switch metric {
	case MetricPositive:
		weights = positiveWeights[t]
	case MetricEfficiency:
		weights = efficiencyWeights[t]
	}
	if weights == nil {
		return Score{}, false
	}

	scoped := append([]Filter{WithType(t)}, filters...)
	total := 0
	score := 0.0
	for k, n := range b.Events.Query(scoped...) {
		total += n
		score += weights[k.Evaluation] * float64(n)
	}
	if total == 0 {
		return Score{}, false
	}
	return Score{
		Pct:   100 * score / float64(total),
		Total: total,
		Score: score,
	}, true
}

// AttackEfficiency returns (kills - errors - overs) / swings over the
// attacks table. ok is false when no attacks match.
func (b *Bundle) AttackEfficiency(filters ...Filter) (Ratio, bool) {
	return b.efficiencyOver(b.Attacks, filters)
}

// CounterAttackConversionRate returns the share of counter-attacks that
// scored. ok is false when no counter-attacks match.
func (b *Bundle) CounterAttackConversionRate(filters ...Filter) (Ratio, bool) {
	total := b.CounterAttacks.Sum(filters...)
	if total == 0 {
		return Ratio{}, false
	}
	kills := b.CounterAttacks.Sum(append(filters, WithEvaluation(event.EvalPerfect))...)
	return Ratio{
		Value:       float64(kills) / float64(total),
		Numerator:   float64(kills),
		Denominator: total,
	}, true
}

// PhasesPerScoredPoint returns how many attack phases the team needed per
// scored point. ok is false when no points were scored.
func (b *Bundle) PhasesPerScoredPoint(filters ...CounterFilter) (Ratio, bool) {
	return b.counterRatio(CounterPhase, CounterScoredPoint, filters)
}

// PossessionsPerEarnedPoint returns how many ball possessions the team
// needed per earned point. ok is false when no points were earned.
func (b *Bundle) PossessionsPerEarnedPoint(filters ...CounterFilter) (Ratio, bool) {
	return b.counterRatio(CounterPossession, CounterEarnedPoint, filters)
}

func (b *Bundle) efficiencyOver(table *Table[Key], filters []Filter) (Ratio, bool) {
	total := table.Sum(filters...)
	if total == 0 {
		return Ratio{}, false
	}
	score := 0.0
	for k, n := range table.Query(filters...) {
		switch k.Evaluation {
		case event.EvalPerfect:
			score += float64(n)
		case event.EvalError, event.EvalOver:
			score -= float64(n)
		}
	}
	return Ratio{
		Value:       score / float64(total),
		Numerator:   score,
		Denominator: total,
	}, true
}

func (b *Bundle) counterRatio(num, den Counter, filters []CounterFilter) (Ratio, bool) {
	denTotal := b.Counters.Sum(append(filters, WithCounter(den))...)
	if denTotal == 0 {
		return Ratio{}, false
	}
	numTotal := b.Counters.Sum(append(filters, WithCounter(num))...)
	return Ratio{
		Value:       float64(numTotal) / float64(denTotal),
		Numerator:   float64(numTotal),
		Denominator: denTotal,
	}, true
}
