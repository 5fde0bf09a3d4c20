package retrieval

import "answer-pipeline/internal/domain"

// AssessQuality grades retrieval output. The tier starts from chunk volume
// and the per-document average, then average vector distance can only hold
// or degrade it (never improve it): high relevance adds a small confidence
// bump, poor relevance demotes both tier and confidence.
func AssessQuality(chunks []domain.RetrievedChunk, docCount int) domain.DataQuality {
	if len(chunks) == 0 {
		return domain.DataQuality{
			Tier:       domain.QualityInsufficient,
			Confidence: 30,
			Relevance:  domain.RelevanceVeryLow,
		}
	}

	q := domain.DataQuality{
		TotalChunks: len(chunks),
		TotalDocs:   docCount,
	}

	avgPerDoc := 0.0
	if docCount > 0 {
		avgPerDoc = float64(len(chunks)) / float64(docCount)
	}
	switch {
	case avgPerDoc >= 5 && len(chunks) >= 10:
		q.Tier, q.Confidence = domain.QualityExcellent, 85
	case avgPerDoc >= 3 && len(chunks) >= 5:
		q.Tier, q.Confidence = domain.QualityGood, 75
	case avgPerDoc >= 1 && len(chunks) >= 3:
		q.Tier, q.Confidence = domain.QualitySufficient, 65
	default:
		q.Tier, q.Confidence = domain.QualityInsufficient, 50
	}

	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	avgDistance := sum / float64(len(chunks))

	switch {
	case avgDistance < 0.3:
		q.Relevance = domain.RelevanceHigh
		q.Confidence += 5
		if q.Confidence > 95 {
			q.Confidence = 95
		}
	case avgDistance < 0.5:
		q.Relevance = domain.RelevanceMedium
	case avgDistance < 0.7:
		q.Relevance = domain.RelevanceLow
		q.Confidence -= 15
		if q.Confidence < 50 {
			q.Confidence = 50
		}
		if q.Tier == domain.QualityExcellent {
			q.Tier = domain.QualityGood
		}
	default:
		q.Relevance = domain.RelevanceVeryLow
		q.Confidence -= 30
		if q.Confidence < 40 {
			q.Confidence = 40
		}
		if q.Tier == domain.QualityExcellent || q.Tier == domain.QualityGood {
			q.Tier = domain.QualitySufficient
		}
	}

	return q
}
