package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// minClassificationsForAdjustment is the sample size below which a type's
	// confidence is left alone.
	minClassificationsForAdjustment = 5
	// minAdjustment floors the confidence multiplier.
	minAdjustment = 0.5
	// alternativeThreshold is the share of corrections a target type needs
	// before it is reported as a likely alternative.
	alternativeThreshold = 0.2
)

// Correction records a user relabelling a classified section.
type Correction struct {
	RunID         uuid.UUID    `json:"run_id"`
	SectionIndex  int          `json:"section_index"`
	OriginalType  DocumentType `json:"original_type"`
	CorrectedType DocumentType `json:"corrected_type"`
	Confidence    float64      `json:"confidence"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CorrectionCount is how often sections labelled Original were relabelled
// Corrected.
type CorrectionCount struct {
	Original  DocumentType `json:"original_type"`
	Corrected DocumentType `json:"corrected_type"`
	Count     int          `json:"count"`
}

// Alternative is a type that users often pick instead of the assigned one.
type Alternative struct {
	DocumentType DocumentType `json:"document_type"`
	Rate         float64      `json:"rate"`
}

// TypeAccuracy summarises how often one document type was corrected.
type TypeAccuracy struct {
	DocumentType         DocumentType  `json:"document_type"`
	TotalClassifications int           `json:"total_classifications"`
	TotalCorrections     int           `json:"total_corrections"`
	AccuracyRate         float64       `json:"accuracy_rate"`
	CorrectionRate       float64       `json:"correction_rate"`
	ConfidenceAdjustment float64       `json:"confidence_adjustment"`
	MostCorrectedTo      DocumentType  `json:"most_corrected_to,omitempty"`
	MostCorrectedToRate  float64       `json:"most_corrected_to_rate,omitempty"`
	Alternatives         []Alternative `json:"alternatives,omitempty"`
}

// AccuracyReport is the per-type correction summary across all runs.
type AccuracyReport struct {
	Types            []TypeAccuracy `json:"types"`
	TotalCorrections int            `json:"total_corrections"`
}

// ConfidenceAdjustment returns the multiplier for a type's confidence given
// its history. Types with fewer than five classifications are not adjusted;
// otherwise the multiplier drops by half the correction rate, floored at 0.5.
func ConfidenceAdjustment(classifications, corrections int) float64 {
	if classifications < minClassificationsForAdjustment {
		return 1.0
	}
	return max(minAdjustment, 1.0-correctionRate(classifications, corrections)*0.5)
}

func correctionRate(classifications, corrections int) float64 {
	if classifications <= 0 {
		return 0
	}
	return min(1.0, float64(corrections)/float64(classifications))
}

// BuildAccuracyReport combines classification totals with correction counts.
// Only types that were classified at least once are reported, in label order.
func BuildAccuracyReport(totals map[DocumentType]int, counts []CorrectionCount) *AccuracyReport {
	targets := make(map[DocumentType][]CorrectionCount)
	report := &AccuracyReport{Types: []TypeAccuracy{}}
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		targets[c.Original] = append(targets[c.Original], c)
		report.TotalCorrections += c.Count
	}

	for dt, total := range totals {
		if total <= 0 {
			continue
		}
		ta := TypeAccuracy{DocumentType: dt, TotalClassifications: total}
		for _, c := range targets[dt] {
			ta.TotalCorrections += c.Count
		}
		ta.CorrectionRate = correctionRate(total, ta.TotalCorrections)
		ta.AccuracyRate = 1.0 - ta.CorrectionRate
		ta.ConfidenceAdjustment = ConfidenceAdjustment(total, ta.TotalCorrections)

		byCount := slices.Clone(targets[dt])
		slices.SortFunc(byCount, func(a, b CorrectionCount) int {
			if a.Count != b.Count {
				return b.Count - a.Count
			}
			return cmp.Compare(a.Corrected, b.Corrected)
		})
		for i, c := range byCount {
			rate := float64(c.Count) / float64(ta.TotalCorrections)
			if i == 0 {
				ta.MostCorrectedTo, ta.MostCorrectedToRate = c.Corrected, rate
			}
			if rate >= alternativeThreshold {
				ta.Alternatives = append(ta.Alternatives, Alternative{DocumentType: c.Corrected, Rate: rate})
			}
		}
		report.Types = append(report.Types, ta)
	}

	slices.SortFunc(report.Types, func(a, b TypeAccuracy) int {
		return cmp.Or(
			cmp.Compare(labelOrder(a.DocumentType), labelOrder(b.DocumentType)),
			cmp.Compare(a.DocumentType, b.DocumentType),
		)
	})
	return report
}

// labelOrder places known types in enumeration order and anything else after.
func labelOrder(dt DocumentType) int {
	if i := slices.Index(DocumentTypes, dt); i >= 0 {
		return i
	}
	return len(DocumentTypes)
}
