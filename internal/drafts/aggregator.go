package drafts

import (
	"math"
	"strings"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/sessions"
)

// Aggregation is the candidate draft body computed from a session's
// interviews.
type Aggregation struct {
	Content         Content
	Progress        Progress
	OverallRating   float64
	CompletedCount  int
	TotalInterviews int
}

// Aggregate merges a session's interviews into normalized draft content
// and progress metrics. Only completed interviews contribute content;
// the full set drives the completion percentages. The function is pure.
func Aggregate(interviews []sessions.Interview) Aggregation {
	agg := Aggregation{
		TotalInterviews: len(interviews),
		Content: Content{
			Professional: ProfessionalContent{
				Skills:       []string{},
				Achievements: []string{},
				Ratings:      map[string]float64{},
			},
			Recommendations: RecommendationsContent{
				Strengths:    []string{},
				Improvements: []string{},
			},
		},
		Progress: Progress{ByType: map[string]TypeProgress{}},
	}

	var (
		ratingSum     float64
		ratingCount   int
		highConfident bool
		summaries     []string
		typeSums      = map[string]float64{}
		typeCounts    = map[string]int{}
	)
	skills := newStringSet()
	achievements := newStringSet()
	strengths := newStringSet()
	improvements := newStringSet()

	for _, iv := range interviews {
		tp := agg.Progress.ByType[iv.Type]
		tp.Total++

		if iv.Status == sessions.StatusCompleted {
			tp.Completed++
			agg.CompletedCount++

			summary := InterviewSummary{
				InterviewID:  iv.ID,
				Type:         iv.Type,
				Interviewer:  iv.Interviewer,
				CompletedAt:  iv.CompletedAt,
				Rating:       iv.Content.Rating,
				Summary:      iv.Content.Summary,
				Strengths:    iv.Content.Strengths,
				Improvements: iv.Content.Improvements,
			}
			agg.Content.Interviews = append(agg.Content.Interviews, summary)

			if iv.Content.Rating != nil {
				ratingSum += *iv.Content.Rating
				ratingCount++
				typeSums[iv.Type] += *iv.Content.Rating
				typeCounts[iv.Type]++
				if *iv.Content.Rating >= 4.0 {
					highConfident = true
				}
			}
			if s := strings.TrimSpace(iv.Content.Summary); s != "" {
				summaries = append(summaries, s)
			}

			strengths.addAll(iv.Content.Strengths)
			improvements.addAll(iv.Content.Improvements)
			if iv.Type == sessions.TypeTechnical {
				skills.addAll(iv.Content.Skills)
			}
			if iv.Type == sessions.TypeTechnical || iv.Type == sessions.TypeBehavioral {
				achievements.addAll(iv.Content.Strengths)
			}
		}

		agg.Progress.ByType[iv.Type] = tp
	}

	if ratingCount > 0 {
		agg.OverallRating = roundTo1(ratingSum / float64(ratingCount))
	}
	for t, count := range typeCounts {
		agg.Content.Professional.Ratings[t] = roundTo1(typeSums[t] / float64(count))
	}

	agg.Content.Personal.Summary = strings.Join(summaries, "\n\n")
	agg.Content.Professional.Skills = skills.values()
	agg.Content.Professional.Achievements = achievements.values()
	agg.Content.Recommendations.Strengths = strengths.values()
	agg.Content.Recommendations.Improvements = improvements.values()
	agg.Content.Recommendations.OverallRating = agg.OverallRating
	agg.Content.Recommendations.Decision = decisionFor(agg.OverallRating, ratingCount)

	agg.Progress = computeProgress(agg.Progress.ByType, agg.CompletedCount, agg.TotalInterviews, highConfident)
	return agg
}

func computeProgress(byType map[string]TypeProgress, completed, total int, highConfident bool) Progress {
	p := Progress{ByType: byType}

	if total > 0 {
		p.Overall = roundPct(float64(completed) / float64(total) * 100)
	}
	if completed > 0 {
		p.Personal = 100
	}

	profCompleted := byType[sessions.TypeTechnical].Completed + byType[sessions.TypeBehavioral].Completed
	profTotal := byType[sessions.TypeTechnical].Total + byType[sessions.TypeBehavioral].Total
	if profTotal > 0 {
		p.Professional = roundPct(float64(profCompleted) / float64(profTotal) * 100)
	}

	// Recommendations lag overall completion: the narrative synthesis is
	// only trusted once a strong interview rating backs it.
	factor := 0.7
	if highConfident {
		factor = 0.9
	}
	p.Recommendations = min(100, roundPct(float64(p.Overall)*factor))

	return p
}

func decisionFor(overallRating float64, ratingCount int) string {
	if ratingCount == 0 {
		return ""
	}
	switch {
	case overallRating >= 4.0:
		return "highly_recommended"
	case overallRating >= 3.0:
		return "recommended"
	case overallRating >= 2.0:
		return "consider"
	default:
		return "not_recommended"
	}
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundPct(v float64) int {
	return int(math.Round(v))
}

type stringSet struct {
	seen  map[string]struct{}
	order []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) addAll(values []string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.order = append(s.order, v)
	}
}

func (s *stringSet) values() []string {
	if s.order == nil {
		return []string{}
	}
	return s.order
}
