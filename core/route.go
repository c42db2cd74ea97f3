package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidRoute is returned when a route record fails field validation
	ErrInvalidRoute = errors.New("invalid route")
	// ErrDuplicatePath is returned when two routes share a path
	ErrDuplicatePath = errors.New("duplicate route path")
	// ErrDuplicateName is returned when two routes share a name
	ErrDuplicateName = errors.New("duplicate route name")
)

var validate = validator.New()

// Route maps a URL path to the component rendered at that path.
// Name is used for programmatic navigation and link generation.
type Route struct {
	Path      string    `json:"path" yaml:"path" validate:"required,startswith=/,max=256"`
	Name      string    `json:"name" yaml:"name" validate:"required,alphanum,max=64"`
	Component Component `json:"-" yaml:"-" validate:"required"`
}

// Validate checks the route's fields
func (r Route) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w %q: %s", ErrInvalidRoute, r.Path, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w %q: %v", ErrInvalidRoute, r.Path, err)
	}
	return nil
}

// RouteTable is an ordered, immutable set of routes with unique paths and names.
type RouteTable struct {
	routes []Route
	byPath map[string]int
	byName map[string]int
}

// NewRouteTable validates routes and builds a table preserving their order.
// Every problem found is reported, not only the first.
func NewRouteTable(routes ...Route) (*RouteTable, error) {
	t := &RouteTable{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]int, len(routes)),
		byName: make(map[string]int, len(routes)),
	}

	var result *multierror.Error
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, exists := t.byPath[r.Path]; exists {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicatePath, r.Path))
			continue
		}
		if _, exists := t.byName[r.Name]; exists {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicateName, r.Name))
			continue
		}
		t.byPath[r.Path] = len(t.routes)
		t.byName[r.Name] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

// Routes returns a copy of the routes in registration order
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Names returns route names in registration order
func (t *RouteTable) Names() []string {
	names := make([]string, len(t.routes))
	for i, r := range t.routes {
		names[i] = r.Name
	}
	return names
}

// ByName looks up a route by its name
func (t *RouteTable) ByName(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// ByPath looks up a route by its exact path
func (t *RouteTable) ByPath(path string) (Route, bool) {
	i, ok := t.byPath[path]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Len returns the number of routes
func (t *RouteTable) Len() int {
	return len(t.routes)
}
