package service

import (
	"math"

	"github.com/edulane/lms-api/internal/models"
)

// IDSet is a lookup of entity ids, used for viewed resources and submitted
// assessments.
type IDSet map[string]struct{}

// NewIDSet builds an IDSet from a slice of ids.
func NewIDSet(ids []string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// moduleUnits counts a module's completable units. Every resource and every
// assessment is one unit; a resource is complete when viewed, an assessment
// when submitted (grading status is irrelevant).
func moduleUnits(resources []models.Resource, assessments []models.Assessment, viewed, submitted IDSet) (completed, total int) {
	total = len(resources) + len(assessments)
	for _, r := range resources {
		if viewed.Has(r.ID) {
			completed++
		}
	}
	for _, a := range assessments {
		if submitted.Has(a.ID) {
			completed++
		}
	}
	return completed, total
}

// ModuleCompletion returns the 0-100 completion percentage for one module.
// A module with zero completable units is 0, not undefined and not 100.
func ModuleCompletion(resources []models.Resource, assessments []models.Assessment, viewed, submitted IDSet) int {
	completed, total := moduleUnits(resources, assessments, viewed, submitted)
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// CourseCompletion is the unweighted mean of the per-module completions.
// Zero-unit modules contribute 0 and pull the average down; they are not
// excluded.
func CourseCompletion(moduleCompletions []int) int {
	if len(moduleCompletions) == 0 {
		return 0
	}
	sum := 0
	for _, c := range moduleCompletions {
		sum += c
	}
	return int(math.Round(float64(sum) / float64(len(moduleCompletions))))
}
