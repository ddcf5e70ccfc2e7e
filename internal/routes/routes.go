// package routes decides which view a path resolves to, given whether the session is authenticated
package routes

import (
	"net/url"
	"strings"
	"time"
)

// Route names.
type Route string

const (
	Register Route = "register"
	Login    Route = "login"
	Home     Route = "home"
	Playlist Route = "playlist"
	NotFound Route = "notfound"
)

// Paths of the public entry points and the default landing page.
const (
	RegisterPath = "/register"
	LoginPath    = "/login"
	HomePath     = "/home"
)

// NotFoundCountdown is how long the not-found view waits before sending the user home.
const NotFoundCountdown = 5 * time.Second

type definition struct {
	route     Route
	segments  []string // ":name" captures one path segment
	protected bool
}

var table = []definition{
	{route: Register, segments: []string{"register"}},
	{route: Login, segments: []string{"login"}},
	{route: Home, segments: []string{"home"}, protected: true},
	{route: Playlist, segments: []string{"playlist", ":id"}, protected: true},
}

// Decision is the outcome of resolving a path.
//
// When RedirectTo is set the caller must navigate there instead of rendering Route.
type Decision struct {
	Route      Route
	Params     map[string]string
	RedirectTo string
}

// Redirected reports whether the guard refused the route.
func (d Decision) Redirected() bool {
	return d.RedirectTo != ""
}

// Resolve matches path against the route table and applies the guard: a protected route
// requested without an authenticated session redirects to [LoginPath].
//
// Resolve keeps no state; call it on every navigation and every session change.
func Resolve(path string, authenticated bool) Decision {
	def, params, ok := match(path)
	if !ok {
		return Decision{Route: NotFound}
	}

	if def.protected && !authenticated {
		return Decision{Route: Login, RedirectTo: LoginPath}
	}
	return Decision{Route: def.route, Params: params}
}

// Protected reports whether route requires an authenticated session.
func Protected(route Route) bool {
	for _, def := range table {
		if def.route == route {
			return def.protected
		}
	}
	return false
}

// PlaylistPath returns the path of a playlist's detail view.
func PlaylistPath(id string) string {
	return "/playlist/" + url.PathEscape(id)
}

func match(path string) (definition, map[string]string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")

	for _, def := range table {
		if len(def.segments) != len(parts) {
			continue
		}

		params := map[string]string{}
		matched := true
		for i, seg := range def.segments {
			if name, ok := strings.CutPrefix(seg, ":"); ok {
				value, err := url.PathUnescape(parts[i])
				if err != nil || value == "" {
					matched = false
					break
				}
				params[name] = value
				continue
			}
			if seg != parts[i] {
				matched = false
				break
			}
		}

		if matched {
			return def, params, true
		}
	}
	return definition{}, nil, false
}
