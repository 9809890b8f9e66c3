package retriever

import "document-qa/internal/index"

// ScoreFunc converts a store's raw measure into a similarity in
// (0, 1], higher is better. The 1/(1+d) shape is a coarse
// inverse-distance approximation, not a calibrated probability;
// thresholds tuned against one embedding model do not transfer to
// another.
type ScoreFunc func(raw float64) float64

// ForMetric returns the score conversion matching a store's metric.
func ForMetric(metric index.Metric) ScoreFunc {
	switch metric {
	case index.MetricCosine:
		return CosineScore
	default:
		return L2Score
	}
}

// L2Score maps a euclidean distance d to 1/(1+d).
func L2Score(distance float64) float64 {
	return 1 / (1 + distance)
}

// CosineScore converts a cosine similarity s to the squared euclidean
// distance between unit vectors, d = 2(1-s), then applies the same
// 1/(1+d) shape. Identical vectors score 1.0, orthogonal ones 1/3.
func CosineScore(similarity float64) float64 {
	return 1 / (1 + 2*(1-similarity))
}
