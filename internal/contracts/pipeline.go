package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 매니페스트, 에러 메시지에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → DONE
//   Ingest  Tag  Aggregate  Rank  Publish
//   실패 시 어느 단계에서든 FAILED (출력 없음)

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngesting S0: 소스 탐색 및 레코드 디코딩
	// 책임: season-*.json 탐색, JSON 디코딩, 스키마 검증
	// 위치: internal/s0_ingest/
	StageIngesting Stage = "INGESTING"

	// StageTagging S1: 시즌 태깅
	// 책임: 파일 식별자에서 시즌 추출, 레코드에 시즌 부여
	// 위치: internal/s0_ingest/tagger.go
	StageTagging Stage = "TAGGING"

	// StageAggregating S2: 팀/시즌 집계
	// 책임: 승점 부여, 홈/원정 합산, 득점 합산
	// 위치: internal/s1_standings/, internal/s2_topscorer/
	StageAggregating Stage = "AGGREGATING"

	// StageRanking S3: 순위 부여
	// 책임: 시즌별 정렬, 공동 순위 처리, 최다 득점 팀 선별
	// 위치: internal/s1_standings/ranker.go
	StageRanking Stage = "RANKING"

	// StagePublishing S4: 결과 저장
	// 책임: 시즌 파티션 원자적 교체 (file / postgres / redis)
	// 위치: internal/publish/
	StagePublishing Stage = "PUBLISHING"

	// StageDone 완료
	StageDone Stage = "DONE"

	// StageFailed 실패 (terminal, 출력 없음)
	StageFailed Stage = "FAILED"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngesting:
		return "S0"
	case StageTagging:
		return "S1"
	case StageAggregating:
		return "S2"
	case StageRanking:
		return "S3"
	case StagePublishing:
		return "S4"
	case StageDone:
		return "OK"
	case StageFailed:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngesting:
		return "소스 탐색/디코딩"
	case StageTagging:
		return "시즌 태깅"
	case StageAggregating:
		return "팀/시즌 집계"
	case StageRanking:
		return "순위 부여"
	case StagePublishing:
		return "결과 저장"
	case StageDone:
		return "완료"
	case StageFailed:
		return "실패"
	default:
		return "알 수 없음"
	}
}

// IsTerminal reports whether no further transition is possible
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// Next returns the stage that follows s on the success path
func (s Stage) Next() Stage {
	switch s {
	case StageIngesting:
		return StageTagging
	case StageTagging:
		return StageAggregating
	case StageAggregating:
		return StageRanking
	case StageRanking:
		return StagePublishing
	case StagePublishing:
		return StageDone
	default:
		return s
	}
}

// AllStages returns the working stages in order (terminal states excluded)
func AllStages() []Stage {
	return []Stage{
		StageIngesting,
		StageTagging,
		StageAggregating,
		StageRanking,
		StagePublishing,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	switch Stage(s) {
	case StageDone, StageFailed:
		return true
	}
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
