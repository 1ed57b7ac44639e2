package services

import (
	"cmp"
	"slices"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/rs/zerolog"
)

// BackfillStats counts what one backfill pass did.
type BackfillStats struct {
	Filled    int
	Ambiguous int
	Dropped   int
}

// RefKey identifies a raw instructor reference by its cleaned name and email.
type RefKey struct {
	Name  string
	Email string
}

// ProfessorResolution is the global identity assignment of all references.
type ProfessorResolution struct {
	// Professors are sorted by ID
	Professors []models.Professor
	// CourseProfessors are deduplicated and sorted by (course, professor)
	CourseProfessors []models.CourseProfessor
	ByRef            map[RefKey]int64
}

// ProfessorResolver turns instructor references into canonical professors.
type ProfessorResolver struct {
	log zerolog.Logger
}

func NewProfessorResolver() *ProfessorResolver {
	return &ProfessorResolver{log: logger.Component("professor_resolver")}
}

// Backfill fills missing emails within one season. References sharing an
// exact name and lacking an email take the lexicographically smallest email
// seen for that name; when several emails compete the choice is counted as
// ambiguous. References with neither name nor email are dropped. Running
// Backfill on its own output changes nothing.
func (r *ProfessorResolver) Backfill(refs []models.ProfessorRef) ([]models.ProfessorRef, BackfillStats) {
	var stats BackfillStats

	emailsByName := make(map[string][]string)
	kept := make([]models.ProfessorRef, 0, len(refs))
	for _, ref := range refs {
		if ref.Name == "" && ref.Email == "" {
			stats.Dropped++
			continue
		}
		kept = append(kept, ref)
		if ref.Name != "" && ref.Email != "" {
			emailsByName[ref.Name] = append(emailsByName[ref.Name], ref.Email)
		}
	}

	chosen := make(map[string]string, len(emailsByName))
	needsFill := make(map[string]bool)
	for _, ref := range kept {
		if ref.Email == "" && len(emailsByName[ref.Name]) > 0 {
			needsFill[ref.Name] = true
		}
	}
	for name := range needsFill {
		emails := slices.Clone(emailsByName[name])
		slices.Sort(emails)
		emails = slices.Compact(emails)
		chosen[name] = emails[0]
		if len(emails) > 1 {
			stats.Ambiguous++
			r.log.Info().Str("name", name).Strs("emails", emails).Str("chosen", emails[0]).
				Msg("Several emails for one instructor name, using the smallest")
		}
	}

	for i := range kept {
		if kept[i].Email != "" {
			continue
		}
		if email, ok := chosen[kept[i].Name]; ok {
			kept[i].Email = email
			stats.Filled++
		}
	}

	return kept, stats
}

type identity struct {
	key         string
	email       string
	name        string
	nameSeason  string
	firstSeason string
	id          int64
}

// identityKey returns the canonical key of a reference: its email when it
// has one, its exact name otherwise.
func identityKey(ref models.ProfessorRef) string {
	if ref.Email != "" {
		return "email:" + ref.Email
	}
	return "name:" + ref.Name
}

// Resolve assigns professor IDs to backfilled references of every season.
// CourseID of each reference must already be the global course ID.
// Identities are numbered by the first season they appear in, then by key.
func (r *ProfessorResolver) Resolve(refs []models.ProfessorRef) ProfessorResolution {
	identities := make(map[string]*identity)
	for _, ref := range refs {
		if ref.Name == "" && ref.Email == "" {
			continue
		}
		key := identityKey(ref)
		id, ok := identities[key]
		if !ok {
			id = &identity{key: key, email: ref.Email, firstSeason: ref.SeasonCode}
			identities[key] = id
		}
		if ref.SeasonCode < id.firstSeason {
			id.firstSeason = ref.SeasonCode
		}
		// the most recent season names the professor, ties go to the smaller name
		if ref.Name != "" {
			if id.name == "" || ref.SeasonCode > id.nameSeason ||
				(ref.SeasonCode == id.nameSeason && ref.Name < id.name) {
				id.name = ref.Name
				id.nameSeason = ref.SeasonCode
			}
		}
	}

	ordered := make([]*identity, 0, len(identities))
	for _, id := range identities {
		ordered = append(ordered, id)
	}
	slices.SortFunc(ordered, func(a, b *identity) int {
		if c := cmp.Compare(a.firstSeason, b.firstSeason); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	professors := make([]models.Professor, 0, len(ordered))
	for i, id := range ordered {
		id.id = int64(i + 1)
		p := models.Professor{ID: id.id, Name: id.name}
		if id.email != "" {
			email := id.email
			p.Email = &email
			if p.Name == "" {
				p.Name = email
			}
		}
		professors = append(professors, p)
	}

	byRef := make(map[RefKey]int64)
	seen := make(map[models.CourseProfessor]bool)
	var junction []models.CourseProfessor
	for _, ref := range refs {
		if ref.Name == "" && ref.Email == "" {
			continue
		}
		pid := identities[identityKey(ref)].id
		byRef[RefKey{Name: ref.Name, Email: ref.Email}] = pid
		cp := models.CourseProfessor{CourseID: ref.CourseID, ProfessorID: pid}
		if !seen[cp] {
			seen[cp] = true
			junction = append(junction, cp)
		}
	}
	slices.SortFunc(junction, func(a, b models.CourseProfessor) int {
		if c := cmp.Compare(a.CourseID, b.CourseID); c != 0 {
			return c
		}
		return cmp.Compare(a.ProfessorID, b.ProfessorID)
	})

	r.log.Debug().Int("references", len(refs)).Int("professors", len(professors)).Msg("Resolved professor identities")

	return ProfessorResolution{
		Professors:       professors,
		CourseProfessors: junction,
		ByRef:            byRef,
	}
}
