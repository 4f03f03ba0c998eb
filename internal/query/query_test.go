package query

import (
	"math"
	"reflect"
	"testing"
	"time"
)

type person struct {
	Name    string
	Surname string
	Email   string
	Role    string
	Created time.Time
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

var people = []person{
	{"María", "González", "maria@x.com", "docente", day("2024-02-10")},
	{"Juan", "Pérez", "juan@x.com", "administrador", day("2024-03-01")},
	{"Ana", "Lopez", "ana@x.com", "docente", day("2024-02-01")},
	{"Luis", "Gonzaga", "luis@x.com", "docente", day("2024-02-28").Add(23 * time.Hour)},
}

func personFields(p person) []string { return []string{p.Name, p.Surname, p.Email} }

func names(ps []person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestFilter_Search(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"gonz", []string{"María", "Luis"}},
		{"GONZ", []string{"María", "Luis"}},
		{"gonzalez", []string{"María"}},
		{"perez", []string{"Juan"}},
		{"PÉREZ", []string{"Juan"}},
		{"ana@", []string{"Ana"}},
		{"  ", []string{"María", "Juan", "Ana", "Luis"}},
		{"nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := Filter(people, Criteria[person]{Search: tt.term, SearchFields: personFields})
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("Search %q: expected %v, got %v", tt.term, tt.want, names(got))
			}
		})
	}
}

func TestFilter_SearchScenario(t *testing.T) {
	c := Criteria[person]{Search: "gonz", SearchFields: personFields}

	maria := []person{{Name: "María", Surname: "González"}}
	if len(Filter(maria, c)) != 1 {
		t.Error("María González should match 'gonz'")
	}

	juan := []person{{Name: "Juan", Surname: "Pérez"}}
	if len(Filter(juan, c)) != 0 {
		t.Error("Juan Pérez should not match 'gonz'")
	}
}

func TestFilter_Category(t *testing.T) {
	role := func(v string) Criteria[person] {
		return Criteria[person]{Categories: []Category[person]{{Value: v, Field: func(p person) string { return p.Role }}}}
	}

	if got := Filter(people, role("docente")); len(got) != 3 {
		t.Errorf("Expected 3 docentes, got %d", len(got))
	}
	if got := Filter(people, role("administrador")); !reflect.DeepEqual(names(got), []string{"Juan"}) {
		t.Errorf("Expected [Juan], got %v", names(got))
	}
	for _, bypass := range []string{"all", "ALL", ""} {
		if got := Filter(people, role(bypass)); len(got) != len(people) {
			t.Errorf("Value %q should bypass the filter, got %d records", bypass, len(got))
		}
	}
	if got := Filter(people, role("Docente")); len(got) != 0 {
		t.Errorf("Category match is exact, got %d records", len(got))
	}
}

func TestFilter_DateRange(t *testing.T) {
	created := func(p person) time.Time { return p.Created }

	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		want []string
	}{
		{"february inclusive", ptr(day("2024-02-01")), ptr(day("2024-02-28")), []string{"María", "Ana", "Luis"}},
		{"open start", nil, ptr(day("2024-02-09")), []string{"Ana"}},
		{"open end", ptr(day("2024-02-28")), nil, []string{"Juan", "Luis"}},
		{"unbounded", nil, nil, []string{"María", "Juan", "Ana", "Luis"}},
		{"inverted", ptr(day("2024-03-01")), ptr(day("2024-02-01")), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(people, Criteria[person]{DateField: created, From: tt.from, To: tt.to})
			if !reflect.DeepEqual(names(got), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, names(got))
			}
		})
	}
}

func TestFilter_DateRangeScenario(t *testing.T) {
	march := []person{{Name: "Late", Created: day("2024-03-01")}}
	c := Criteria[person]{
		DateField: func(p person) time.Time { return p.Created },
		From:      ptr(day("2024-02-01")),
		To:        ptr(day("2024-02-28")),
	}
	if len(Filter(march, c)) != 0 {
		t.Error("Record dated 2024-03-01 must be excluded from February")
	}
}

func TestFilter_CombinedAndPure(t *testing.T) {
	source := append([]person(nil), people...)
	c := Criteria[person]{
		Search:       "gonz",
		SearchFields: personFields,
		Categories:   []Category[person]{{Value: "docente", Field: func(p person) string { return p.Role }}},
		DateField:    func(p person) time.Time { return p.Created },
		To:           ptr(day("2024-02-15")),
	}

	got := Filter(people, c)
	if !reflect.DeepEqual(names(got), []string{"María"}) {
		t.Errorf("Expected [María], got %v", names(got))
	}
	if !reflect.DeepEqual(source, people) {
		t.Error("Filter modified its input")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name       string
		page, size int
		wantPage   int
		wantItems  []int
		wantTotal  int
	}{
		{"first page", 1, 3, 1, []int{1, 2, 3}, 3},
		{"last partial page", 3, 3, 3, []int{7}, 3},
		{"page zero clamps to first", 0, 3, 1, []int{1, 2, 3}, 3},
		{"negative page clamps to first", -4, 3, 1, []int{1, 2, 3}, 3},
		{"beyond last clamps to last", 99, 3, 3, []int{7}, 3},
		{"single page clamps", 2, 7, 1, []int{1, 2, 3, 4, 5, 6, 7}, 1},
		{"default size", 1, 0, 1, []int{1, 2, 3, 4, 5, 6, 7}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			if p.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, p.Page)
			}
			if !reflect.DeepEqual(p.Items, tt.wantItems) {
				t.Errorf("Expected items %v, got %v", tt.wantItems, p.Items)
			}
			if p.TotalPages != tt.wantTotal {
				t.Errorf("Expected %d total pages, got %d", tt.wantTotal, p.TotalPages)
			}
			if p.TotalItems != len(items) {
				t.Errorf("Expected %d total items, got %d", len(items), p.TotalItems)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]int{}, 5, 10)
	if p.Page != 1 || p.TotalPages != 0 || p.TotalItems != 0 {
		t.Errorf("Unexpected empty page: %+v", p)
	}
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("Expected empty non-nil items, got %#v", p.Items)
	}

	var none []int
	if p := Paginate(none, 1, 10); p.Items == nil {
		t.Error("Expected non-nil items for nil input")
	}
}

func TestPaginate_HugePageSize(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	for _, page := range []int{1, 2, math.MaxInt} {
		p := Paginate(items, page, math.MaxInt)
		if p.Page != 1 || p.TotalPages != 1 || p.TotalItems != 5 {
			t.Errorf("Page %d: unexpected page: %+v", page, p)
		}
		if !reflect.DeepEqual(p.Items, items) {
			t.Errorf("Page %d: expected all items, got %v", page, p.Items)
		}
	}
}

func TestPaginate_DoesNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4}
	p := Paginate(items, 1, 2)
	p.Items[0] = 100
	p.Items = append(p.Items, 200)

	if !reflect.DeepEqual(items, []int{1, 2, 3, 4}) {
		t.Errorf("Paginate result aliases input: %v", items)
	}
}

func TestRun_Idempotent(t *testing.T) {
	c := Criteria[person]{Search: "o", SearchFields: personFields}
	s := State{Page: 2, PageSize: 2}

	first := Run(people, c, s)
	second := Run(people, c, s)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Run is not idempotent: %+v vs %+v", first, second)
	}
}

func TestState_WithPageSizeResetsPage(t *testing.T) {
	s := State{Page: 4, PageSize: 10}.WithPageSize(25)
	if s.Page != 1 || s.PageSize != 25 {
		t.Errorf("Expected page 1 size 25, got %+v", s)
	}

	s = s.WithPage(3)
	if s.Page != 3 || s.PageSize != 25 {
		t.Errorf("Expected page 3 size 25, got %+v", s)
	}
}
