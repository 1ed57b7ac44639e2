package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/graph"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/textdist"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DoNotMerge vetoes bridging two titles. An empty Code applies everywhere.
type DoNotMerge struct {
	Code   string
	TitleA string
	TitleB string
}

func (d DoNotMerge) matches(titleA, titleB string) bool {
	return (d.TitleA == titleA && d.TitleB == titleB) || (d.TitleA == titleB && d.TitleB == titleA)
}

// MatchingOptions tunes the similarity bridging of the matcher.
type MatchingOptions struct {
	TitleThreshold       float64
	DescriptionThreshold float64
	MinTitleLength       int
	MinDescriptionLength int
	Workers              int
	DoNotMerge           []DoNotMerge
}

// DefaultMatchingOptions returns the thresholds used when nothing is configured.
func DefaultMatchingOptions() MatchingOptions {
	return MatchingOptions{
		TitleThreshold:       0.35,
		DescriptionThreshold: 0.25,
		MinTitleLength:       8,
		MinDescriptionLength: 32,
		Workers:              8,
	}
}

// MatchCourse is the view of a course the matcher works on.
type MatchCourse struct {
	ID          int64
	Codes       []string
	Title       string
	Description string
}

// MatchStats counts why title clusters were connected or kept apart.
type MatchStats struct {
	TitleBridges       int64
	DescriptionBridges int64
	FeaturelessBridges int64
	Vetoed             int64
}

// SameCoursePartition labels every course with its code group and its
// same-course group. Both numberings start at 1 and follow the smallest
// course ID of each group.
type SameCoursePartition struct {
	CodeGroup  map[int64]int64
	SameCourse map[int64]int64
	CodeGroups int
	Groups     int
	Stats      MatchStats
}

// SameCourseMatcher partitions courses of all seasons into groups of
// repeated offerings. The underlying similarity is not transitive, so a group
// is a connected component of the similarity graph rather than a set of
// pairwise-similar courses.
type SameCourseMatcher struct {
	opts MatchingOptions
	log  zerolog.Logger
}

func NewSameCourseMatcher(opts MatchingOptions) *SameCourseMatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &SameCourseMatcher{opts: opts, log: logger.Component("same_course_matcher")}
}

// Match runs code grouping, title clustering, similarity bridging and the
// final connected components. Code groups are matched concurrently.
func (m *SameCourseMatcher) Match(ctx context.Context, courses []MatchCourse) (SameCoursePartition, error) {
	sorted := slices.Clone(courses)
	slices.SortFunc(sorted, func(a, b MatchCourse) int { return cmp.Compare(a.ID, b.ID) })

	codeGroups := groupByCodes(sorted)

	partition := SameCoursePartition{
		CodeGroup:  make(map[int64]int64, len(sorted)),
		SameCourse: make(map[int64]int64, len(sorted)),
		CodeGroups: len(codeGroups),
	}
	for i, members := range codeGroups {
		for _, c := range members {
			partition.CodeGroup[c.ID] = int64(i + 1)
		}
	}

	var stats MatchStats
	results := make([][][]int64, len(codeGroups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, members := range codeGroups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.matchCodeGroup(members, &stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SameCoursePartition{}, fmt.Errorf("matching code groups: %w", err)
	}

	// barrier: number groups by their smallest course ID
	var groups [][]int64
	for _, r := range results {
		groups = append(groups, r...)
	}
	slices.SortFunc(groups, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })
	for i, members := range groups {
		for _, id := range members {
			partition.SameCourse[id] = int64(i + 1)
		}
	}
	partition.Groups = len(groups)
	partition.Stats = MatchStats{
		TitleBridges:       atomic.LoadInt64(&stats.TitleBridges),
		DescriptionBridges: atomic.LoadInt64(&stats.DescriptionBridges),
		FeaturelessBridges: atomic.LoadInt64(&stats.FeaturelessBridges),
		Vetoed:             atomic.LoadInt64(&stats.Vetoed),
	}

	m.log.Info().
		Int("courses", len(sorted)).
		Int("code_groups", partition.CodeGroups).
		Int("same_course_groups", partition.Groups).
		Int64("title_bridges", partition.Stats.TitleBridges).
		Int64("description_bridges", partition.Stats.DescriptionBridges).
		Int64("vetoed", partition.Stats.Vetoed).
		Msg("Matched same courses")

	return partition, nil
}

// groupByCodes unions course codes that ever belonged to one course and
// returns the courses of each code group. Input must be sorted by ID; groups
// come out ordered by their smallest course ID with members ascending.
func groupByCodes(sorted []MatchCourse) [][]MatchCourse {
	codeIndex := make(map[string]int)
	for _, c := range sorted {
		for _, code := range c.Codes {
			if _, ok := codeIndex[code]; !ok {
				codeIndex[code] = len(codeIndex)
			}
		}
	}

	// courses without any code become their own group
	uf := graph.NewUnionFind(len(codeIndex) + len(sorted))
	nodeOf := func(i int, c MatchCourse) int {
		if len(c.Codes) == 0 {
			return len(codeIndex) + i
		}
		return codeIndex[c.Codes[0]]
	}
	for _, c := range sorted {
		for _, code := range c.Codes[min(1, len(c.Codes)):] {
			uf.Union(codeIndex[c.Codes[0]], codeIndex[code])
		}
	}

	byRoot := make(map[int]int)
	var groups [][]MatchCourse
	for i, c := range sorted {
		root := uf.Find(nodeOf(i, c))
		gi, ok := byRoot[root]
		if !ok {
			gi = len(groups)
			byRoot[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], c)
	}
	return groups
}

type titleCluster struct {
	title        string
	courseIDs    []int64
	codes        map[string]bool
	descriptions []string
	featureless  bool
}

// matchCodeGroup partitions the courses of one code group. members are
// sorted by ID and the returned groups are sorted ascending.
func (m *SameCourseMatcher) matchCodeGroup(members []MatchCourse, stats *MatchStats) [][]int64 {
	var clusters []*titleCluster
	byTitle := make(map[string]*titleCluster)

	for _, c := range members {
		cl, ok := byTitle[c.Title]
		if !ok || c.Title == "" {
			cl = &titleCluster{title: c.Title, codes: make(map[string]bool)}
			clusters = append(clusters, cl)
			if c.Title != "" {
				byTitle[c.Title] = cl
			}
		}
		cl.courseIDs = append(cl.courseIDs, c.ID)
		for _, code := range c.Codes {
			cl.codes[code] = true
		}

		longTitle := textdist.Len(c.Title) >= m.opts.MinTitleLength
		longDescription := textdist.Len(c.Description) >= m.opts.MinDescriptionLength
		if longDescription && !slices.Contains(cl.descriptions, c.Description) {
			cl.descriptions = append(cl.descriptions, c.Description)
		}
		if !longTitle && !longDescription {
			cl.featureless = true
		}
	}

	if len(clusters) == 1 {
		return [][]int64{clusters[0].courseIDs}
	}

	g := graph.New[int]()
	for i := range clusters {
		g.AddNode(i)
	}
	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			a, b := clusters[i], clusters[j]
			if m.vetoed(a, b) {
				atomic.AddInt64(&stats.Vetoed, 1)
				continue
			}
			if m.bridged(a, b, stats) {
				g.AddEdge(i, j)
			}
		}
	}

	var out [][]int64
	for _, component := range g.ConnectedComponents() {
		var ids []int64
		for _, ci := range component {
			ids = append(ids, clusters[ci].courseIDs...)
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	return out
}

// vetoed reports whether a do-not-merge entry covers the two clusters. A
// scoped entry applies when either cluster carries its code.
func (m *SameCourseMatcher) vetoed(a, b *titleCluster) bool {
	for _, d := range m.opts.DoNotMerge {
		if !d.matches(a.title, b.title) {
			continue
		}
		if d.Code == "" || a.codes[d.Code] || b.codes[d.Code] {
			return true
		}
	}
	return false
}

func (m *SameCourseMatcher) bridged(a, b *titleCluster, stats *MatchStats) bool {
	if textdist.Len(a.title) >= m.opts.MinTitleLength && textdist.Len(b.title) >= m.opts.MinTitleLength &&
		textdist.Normalized(a.title, b.title) <= m.opts.TitleThreshold {
		atomic.AddInt64(&stats.TitleBridges, 1)
		return true
	}

	for _, da := range a.descriptions {
		for _, db := range b.descriptions {
			if da == db || textdist.Normalized(da, db) <= m.opts.DescriptionThreshold {
				atomic.AddInt64(&stats.DescriptionBridges, 1)
				return true
			}
		}
	}

	// records too short to judge are given the benefit of the doubt
	if a.featureless && b.featureless {
		atomic.AddInt64(&stats.FeaturelessBridges, 1)
		return true
	}
	return false
}

// SplitByProfessors refines a same-course partition by the exact set of
// professors of each course. Groups are numbered by smallest course ID.
func (m *SameCourseMatcher) SplitByProfessors(sameCourse map[int64]int64, courseProfessors []models.CourseProfessor) (map[int64]int64, int) {
	profs := make(map[int64][]int64)
	for _, cp := range courseProfessors {
		profs[cp.CourseID] = append(profs[cp.CourseID], cp.ProfessorID)
	}

	courseIDs := make([]int64, 0, len(sameCourse))
	for id := range sameCourse {
		courseIDs = append(courseIDs, id)
	}
	slices.Sort(courseIDs)

	keyed := make(map[string]int64)
	out := make(map[int64]int64, len(courseIDs))
	for _, id := range courseIDs {
		key := strconv.FormatInt(sameCourse[id], 10) + "|" + professorSetKey(profs[id])
		gid, ok := keyed[key]
		if !ok {
			// ascending course IDs make first sight the smallest member
			gid = int64(len(keyed) + 1)
			keyed[key] = gid
		}
		out[id] = gid
	}
	return out, len(keyed)
}

func professorSetKey(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
