package s1_standings

// League points per result
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// AssignPoints returns the league points earned by each side of a match
// ⭐ SSOT: 승점 규칙은 여기서만 (승 3 / 무 1 / 패 0)
func AssignPoints(homeGoals, awayGoals int) (homePoints, awayPoints int) {
	switch {
	case homeGoals > awayGoals:
		return PointsWin, PointsLoss
	case homeGoals == awayGoals:
		return PointsDraw, PointsDraw
	default:
		return PointsLoss, PointsWin
	}
}
