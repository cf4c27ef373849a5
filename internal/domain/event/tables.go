package event

import "sort"

// TypeSet is a set of event types, used for legal-next-event computation.
type TypeSet map[Type]struct{}

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...Type) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

// Without returns a copy of the set with t removed.
func (s TypeSet) Without(t Type) TypeSet {
	out := make(TypeSet, len(s))
	for k := range s {
		if k != t {
			out[k] = struct{}{}
		}
	}
	return out
}

// Sorted returns the set members in lexical order, for stable output.
func (s TypeSet) Sorted() []Type {
	out := make([]Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AwardsPointUs reports whether an entry of this type and evaluation scores
// a point for our team.
func AwardsPointUs(t Type, e Evaluation) bool {
	if t == TypeOpponentError {
		return true
	}
	switch t {
	case TypeServe, TypeAttack, TypeBlock:
		return e == EvalPerfect
	default:
		return false
	}
}

// AwardsPointThem reports whether an entry of this type and evaluation scores
// a point for the opponent.
func AwardsPointThem(t Type, e Evaluation) bool {
	switch t {
	case TypeFault, TypeOpponentScore:
		return true
	case TypeServe, TypeAttack, TypeBlock:
		return e == EvalError || e == EvalOver
	case TypePass, TypeDig:
		return e == EvalError
	default:
		return false
	}
}

// transitionKey keys the phase-transition lookup. Evaluation is empty for
// unevaluated types.
type transitionKey struct {
	Type       Type
	Evaluation Evaluation
	Phase      Phase
}

// phaseTransitions maps (type, evaluation, current phase) to the next phase.
// Absent combinations leave the phase unchanged.
var phaseTransitions = map[transitionKey]Phase{
	{TypeOpponentError, "", PhaseSideOut}: PhaseBreak,
	{TypeOpponentScore, "", PhaseBreak}:   PhaseSideOut,
	{TypeFault, "", PhaseBreak}:           PhaseSideOut,

	{TypeServe, EvalError, PhaseBreak}: PhaseSideOut,
	{TypeServe, EvalOver, PhaseBreak}:  PhaseSideOut,

	{TypeAttack, EvalPerfect, PhaseSideOut}: PhaseBreak,
	{TypeAttack, EvalError, PhaseBreak}:     PhaseSideOut,
	{TypeAttack, EvalOver, PhaseBreak}:      PhaseSideOut,

	{TypeBlock, EvalPerfect, PhaseSideOut}: PhaseBreak,
	{TypeBlock, EvalError, PhaseBreak}:     PhaseSideOut,
	{TypeBlock, EvalOver, PhaseBreak}:      PhaseSideOut,

	{TypeDig, EvalError, PhaseBreak}: PhaseSideOut,
}

// NextPhase returns the phase after applying an entry of this type and
// evaluation in the given phase. The second result is false when the phase
// is unchanged.
func NextPhase(t Type, e Evaluation, current Phase) (Phase, bool) {
	if !HasEvaluation(t) {
		e = ""
	}
	next, ok := phaseTransitions[transitionKey{Type: t, Evaluation: e, Phase: current}]
	return next, ok
}

// legalKey keys the legal-next-event lookup.
type legalKey struct {
	Type       Type
	Evaluation Evaluation
}

// Canonical legal sets. ChangeLibero is always listed where legal in
// principle; callers drop it when no fallback libero exists.
var (
	legalAfterOurPoint = NewTypeSet(
		TypeServe, TypeOpponentError, TypeFault,
		TypeSubstitution, TypeChangeSetter, TypeChangeLibero,
	)
	legalAfterTheirPoint = NewTypeSet(
		TypePass, TypeOpponentScore, TypeOpponentError, TypeFault,
		TypeSubstitution, TypeChangeSetter, TypeChangeLibero,
	)
	legalBallTheirSide = NewTypeSet(
		TypeBlock, TypeDig, TypeOpponentScore, TypeOpponentError, TypeFault,
	)
	legalBallOurSide = NewTypeSet(
		TypeAttack, TypeOpponentError, TypeFault,
	)
	legalScramble = NewTypeSet(
		TypeAttack, TypeBlock, TypeDig,
		TypeOpponentScore, TypeOpponentError, TypeFault,
	)
)

// legalAfter maps (type, evaluation) of the applied entry to the legal set
// for the next entry. Bookkeeping types are absent: they pass the previous
// set through unchanged.
var legalAfter = map[legalKey]TypeSet{
	{TypeServe, EvalPerfect}:     legalAfterOurPoint,
	{TypeServe, EvalPositive}:    legalBallTheirSide,
	{TypeServe, EvalExclamative}: legalBallTheirSide,
	{TypeServe, EvalNegative}:    legalBallTheirSide,
	{TypeServe, EvalOver}:        legalAfterTheirPoint,
	{TypeServe, EvalError}:       legalAfterTheirPoint,

	{TypePass, EvalPerfect}:     legalBallOurSide,
	{TypePass, EvalPositive}:    legalBallOurSide,
	{TypePass, EvalExclamative}: legalBallOurSide,
	{TypePass, EvalNegative}:    legalScramble,
	{TypePass, EvalOver}:        legalBallTheirSide,
	{TypePass, EvalError}:       legalAfterTheirPoint,

	{TypeAttack, EvalPerfect}:     legalAfterOurPoint,
	{TypeAttack, EvalPositive}:    legalBallTheirSide,
	{TypeAttack, EvalExclamative}: legalScramble,
	{TypeAttack, EvalNegative}:    legalBallTheirSide,
	{TypeAttack, EvalOver}:        legalAfterTheirPoint,
	{TypeAttack, EvalError}:       legalAfterTheirPoint,

	{TypeDig, EvalPerfect}:     legalBallOurSide,
	{TypeDig, EvalPositive}:    legalBallOurSide,
	{TypeDig, EvalExclamative}: legalBallOurSide,
	{TypeDig, EvalNegative}:    legalScramble,
	{TypeDig, EvalOver}:        legalBallTheirSide,
	{TypeDig, EvalError}:       legalAfterTheirPoint,

	{TypeBlock, EvalPerfect}:     legalAfterOurPoint,
	{TypeBlock, EvalPositive}:    legalBallTheirSide,
	{TypeBlock, EvalExclamative}: legalScramble,
	{TypeBlock, EvalNegative}:    legalScramble,
	{TypeBlock, EvalOver}:        legalAfterTheirPoint,
	{TypeBlock, EvalError}:       legalAfterTheirPoint,

	{TypeFault, ""}:         legalAfterTheirPoint,
	{TypeOpponentScore, ""}: legalAfterTheirPoint,
	{TypeOpponentError, ""}: legalAfterOurPoint,
}

// LegalAfter returns the legal set for the entry following one of this type
// and evaluation. The second result is false for bookkeeping types, whose
// application leaves the legal set unchanged.
func LegalAfter(t Type, e Evaluation) (TypeSet, bool) {
	if !HasEvaluation(t) {
		e = ""
	}
	s, ok := legalAfter[legalKey{Type: t, Evaluation: e}]
	return s, ok
}

// LegalInitial returns the legal set at the start of a set, before any entry
// has been applied.
func LegalInitial(servingUs bool) TypeSet {
	if servingUs {
		return legalAfterOurPoint
	}
	return legalAfterTheirPoint
}
