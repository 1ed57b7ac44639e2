package services

import (
	"cmp"
	"slices"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/graph"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/rs/zerolog"
)

// SeasonCourse is one cross-listing component of a season: the listings that
// form one course and the listing whose attributes the course takes.
type SeasonCourse struct {
	Representative models.Listing
	// Listings are sorted by CRN
	Listings []models.Listing
}

// Codes returns the distinct course codes of the component, sorted.
func (c SeasonCourse) Codes() []string {
	codes := make([]string, 0, len(c.Listings))
	for _, l := range c.Listings {
		codes = append(codes, l.CourseCode)
	}
	slices.Sort(codes)
	return slices.Compact(codes)
}

// SeasonCourses is the cross-listing resolution of one season. Courses are
// ordered by their smallest CRN.
type SeasonCourses struct {
	SeasonCode string
	Courses    []SeasonCourse
	Report     *models.Report
}

// CrossListingResolver groups the listings of a season into courses.
type CrossListingResolver struct {
	log zerolog.Logger
}

func NewCrossListingResolver() *CrossListingResolver {
	return &CrossListingResolver{log: logger.Component("crosslisting_resolver")}
}

// ResolveSeason builds the same-as graph of one season and returns one course
// per connected component. Listings are expected to have unique CRNs, as
// produced by ListingNormalizer.NormalizeSeason.
func (r *CrossListingResolver) ResolveSeason(seasonCode string, listings []models.Listing) SeasonCourses {
	report := models.NewReport()

	sorted := slices.Clone(listings)
	slices.SortFunc(sorted, func(a, b models.Listing) int { return cmp.Compare(a.CRN, b.CRN) })

	index := make(map[int64]int, len(sorted))
	for i, l := range sorted {
		index[l.CRN] = i
	}

	g := graph.New[int64]()
	uf := graph.NewUnionFind(len(sorted))
	for i, l := range sorted {
		g.AddNode(l.CRN)
		for _, other := range l.CrossListedCRNs {
			if other == l.CRN {
				continue
			}
			j, ok := index[other]
			if !ok {
				r.log.Debug().Str("season", seasonCode).Int64("crn", l.CRN).Int64("same_as", other).
					Msg("Ignoring same-as CRN absent from season")
				report.Inconsistency(models.InconsistentPhantomCRN, 1)
				continue
			}
			g.AddEdge(l.CRN, other)
			uf.Union(i, j)
		}
	}

	asymmetric := 0
	for _, l := range sorted {
		for _, other := range l.CrossListedCRNs {
			// count each one-sided pair from the side that lists the other
			j, ok := index[other]
			if !ok || other == l.CRN {
				continue
			}
			if !slices.Contains(sorted[j].CrossListedCRNs, l.CRN) {
				asymmetric++
				r.log.Warn().Str("season", seasonCode).Int64("crn", l.CRN).Int64("same_as", other).
					Msg("Same-as relation is not symmetric")
			}
		}
	}
	report.Inconsistency(models.InconsistentCrossListing, asymmetric)

	components := uf.Components()
	courses := make([]SeasonCourse, 0, len(components))
	for _, members := range components {
		component := make([]models.Listing, len(members))
		crns := make([]int64, len(members))
		for k, idx := range members {
			component[k] = sorted[idx]
			crns[k] = sorted[idx].CRN
		}

		if !g.IsClique(crns) {
			r.log.Warn().Str("season", seasonCode).Ints64("crns", crns).
				Msg("Cross-listed component is not a clique")
			report.Inconsistency(models.InconsistentCrossListing, 1)
		}

		courses = append(courses, SeasonCourse{
			Representative: pickRepresentative(component),
			Listings:       component,
		})
	}

	return SeasonCourses{SeasonCode: seasonCode, Courses: courses, Report: report}
}

// pickRepresentative prefers primary-school listings, then the smallest CRN.
// listings must be sorted by CRN.
func pickRepresentative(listings []models.Listing) models.Listing {
	for _, l := range listings {
		if l.Primary {
			return l
		}
	}
	return listings[0]
}
