// internal/domain/models/award.go
package models

// AwardKind names one bonus flag on a registration.
type AwardKind string

const (
	AwardFirstPlace         AwardKind = "firstPlace"
	AwardSecondPlace        AwardKind = "secondPlace"
	AwardThirdPlace         AwardKind = "thirdPlace"
	AwardFourthPlace        AwardKind = "fourthPlace"
	AwardCompletedInTime    AwardKind = "completedInTime"
	AwardParticipationPoint AwardKind = "participationPoint"
)

// awardWeights is the fixed point value of each award.
var awardWeights = map[AwardKind]int64{
	AwardFirstPlace:         5,
	AwardSecondPlace:        4,
	AwardThirdPlace:         3,
	AwardFourthPlace:        2,
	AwardCompletedInTime:    2,
	AwardParticipationPoint: 1,
}

// AllAwardKinds lists the award kinds in display order.
var AllAwardKinds = []AwardKind{
	AwardParticipationPoint,
	AwardCompletedInTime,
	AwardFirstPlace,
	AwardSecondPlace,
	AwardThirdPlace,
	AwardFourthPlace,
}

// ParseAwardKind returns the kind for s and whether it is known.
func ParseAwardKind(s string) (AwardKind, bool) {
	k := AwardKind(s)
	_, ok := awardWeights[k]
	return k, ok
}

// Weight returns the point value of the award (0 for unknown kinds).
func (k AwardKind) Weight() int64 {
	return awardWeights[k]
}

// Valid reports whether k is one of the known award kinds.
func (k AwardKind) Valid() bool {
	_, ok := awardWeights[k]
	return ok
}

// ParticipationWeight is the base point granted for checking in.
func ParticipationWeight() int64 {
	return awardWeights[AwardParticipationPoint]
}
