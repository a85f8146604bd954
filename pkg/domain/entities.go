// Package domain defines the core persistent entities, closed enumerations,
// and error taxonomy used by labcore.
package domain

import "time"

// Role identifies the capability level of an authenticated principal.
// The numeric values are part of the credential-table contract.
type Role int

// Principal roles in ascending restriction order. The zero value means
// unauthenticated and carries no capabilities.
const (
	RoleUnauthenticated Role = 0
	RoleDirector        Role = 1
	RoleLabTech         Role = 2
	RoleViewer          Role = 3
)

// Valid reports whether the role is one of the three authenticated roles.
func (r Role) Valid() bool {
	return r == RoleDirector || r == RoleLabTech || r == RoleViewer
}

func (r Role) String() string {
	switch r {
	case RoleDirector:
		return "director"
	case RoleLabTech:
		return "labtech"
	case RoleViewer:
		return "viewer"
	default:
		return "unauthenticated"
	}
}

// Principal is an authenticated identity bearing a role. Created on
// successful authentication, destroyed on logout.
type Principal struct {
	Identity    string `json:"identity"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	// Token is assigned per login session and is never persisted.
	Token string `json:"-"`
}

// Department is the organizational unit a sample is routed to. The value
// space is a closed enumeration; anything else is rejected at creation.
type Department string

// Departments returns the fixed department enumeration in report order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

var departments = []Department{
	"3", "5", "7", "10",
	"кп",
	"склад 271", "склад 272", "склад 274", "склад 6002",
	"псэт", "пск", "ПОПС",
	"сварщики", "метизы", "ОгМет",
}

var departmentSet = func() map[Department]struct{} {
	set := make(map[Department]struct{}, len(departments))
	for _, d := range departments {
		set[d] = struct{}{}
	}
	return set
}()

// Valid reports whether the department belongs to the closed enumeration.
func (d Department) Valid() bool {
	_, ok := departmentSet[d]
	return ok
}

// TestName identifies a requested examination. The value space is closed and
// partitioned into three disjoint categories.
type TestName string

// TestCategory groups test names for report aggregation.
type TestCategory string

// The three fixed test categories.
const (
	CategoryMechanical    TestCategory = "mechanical"
	CategoryMetallurgical TestCategory = "metallurgical"
	CategoryChemical      TestCategory = "chemical"
)

var testCategories = map[TestCategory][]TestName{
	CategoryMechanical:    {"рг", "рх", "уд", "загиб", "сварка", "тверд"},
	CategoryMetallurgical: {"нем", "мкк", "макро"},
	CategoryChemical:      {"хим"},
}

var testNameCategory = func() map[TestName]TestCategory {
	idx := make(map[TestName]TestCategory)
	for cat, names := range testCategories {
		for _, n := range names {
			idx[n] = cat
		}
	}
	return idx
}()

// Categories returns the fixed category enumeration in report order.
func Categories() []TestCategory {
	return []TestCategory{CategoryMechanical, CategoryMetallurgical, CategoryChemical}
}

// TestNames returns every known test name, category by category.
func TestNames() []TestName {
	var out []TestName
	for _, cat := range Categories() {
		out = append(out, testCategories[cat]...)
	}
	return out
}

// TestsInCategory returns the names belonging to the given category.
func TestsInCategory(cat TestCategory) []TestName {
	names := testCategories[cat]
	out := make([]TestName, len(names))
	copy(out, names)
	return out
}

// CategoryOf resolves the category of a test name.
func CategoryOf(name TestName) (TestCategory, bool) {
	cat, ok := testNameCategory[name]
	return cat, ok
}

// Valid reports whether the test name belongs to the closed enumeration.
func (n TestName) Valid() bool {
	_, ok := testNameCategory[n]
	return ok
}

// TestStatus is the per-test workflow state. The strings are the persisted
// wire values.
type TestStatus string

// Test workflow states. None is terminal; all three remain reachable under
// the role-specific transition rules enforced by the lifecycle engine.
const (
	StatusInProgress  TestStatus = "in progress"
	StatusTransferred TestStatus = "transferred for testing"
	StatusCompleted   TestStatus = "tested"
)

// Valid reports whether the status is one of the three workflow states.
func (s TestStatus) Valid() bool {
	return s == StatusInProgress || s == StatusTransferred || s == StatusCompleted
}

// Test is a named examination with its own status and capture timestamps.
// TransferredAt is set exactly once, the first time the status becomes
// transferred, and never cleared afterwards; CompletedAt follows the same
// rule for the tested status.
type Test struct {
	Name          TestName   `json:"name"`
	Status        TestStatus `json:"status"`
	TransferredAt *time.Time `json:"transferred_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// Sample is a physical specimen registered for one or more tests. Number
// carries no uniqueness constraint; samples are addressed by position in the
// store's ordered collection.
type Sample struct {
	Number     string     `json:"number"`
	Department Department `json:"department"`
	Tests      []Test     `json:"tests"`
	Urgent     bool       `json:"urgent"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Clone returns a deep copy of the sample.
func (s Sample) Clone() Sample {
	cp := s
	cp.Tests = make([]Test, len(s.Tests))
	for i, t := range s.Tests {
		ct := t
		if t.TransferredAt != nil {
			at := *t.TransferredAt
			ct.TransferredAt = &at
		}
		if t.CompletedAt != nil {
			at := *t.CompletedAt
			ct.CompletedAt = &at
		}
		cp.Tests[i] = ct
	}
	return cp
}

// NewTest builds a test in the initial workflow state with both timestamps
// absent.
func NewTest(name TestName) Test {
	return Test{Name: name, Status: StatusInProgress}
}
