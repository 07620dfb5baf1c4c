// Package router maps the marketplace API onto a gin engine.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// DefaultVersion is the API version segment used when Mount gets ""
const DefaultVersion = "v1"

// Area is one marketplace area (flash sales, shipping, ...) mounted below a
// path prefix. Guards run before every route of the area and its children.
type Area struct {
	name     string
	prefix   string
	guards   []gin.HandlerFunc
	routes   []route
	children []*Area
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewArea creates an area rooted at prefix
func NewArea(name, prefix string, guards ...gin.HandlerFunc) *Area {
	return &Area{name: name, prefix: prefix, guards: guards}
}

// Handle adds a route relative to the area prefix
func (a *Area) Handle(method, p string, handlers ...gin.HandlerFunc) *Area {
	a.routes = append(a.routes, route{method: method, path: p, handlers: handlers})
	return a
}

func (a *Area) GET(p string, h ...gin.HandlerFunc) *Area  { return a.Handle(http.MethodGet, p, h...) }
func (a *Area) POST(p string, h ...gin.HandlerFunc) *Area { return a.Handle(http.MethodPost, p, h...) }
func (a *Area) PUT(p string, h ...gin.HandlerFunc) *Area  { return a.Handle(http.MethodPut, p, h...) }
func (a *Area) PATCH(p string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPatch, p, h...)
}
func (a *Area) DELETE(p string, h ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodDelete, p, h...)
}

// Sub nests a child area below this one
func (a *Area) Sub(name, prefix string, guards ...gin.HandlerFunc) *Area {
	child := NewArea(name, prefix, guards...)
	a.children = append(a.children, child)
	return child
}

// Name returns the area name
func (a *Area) Name() string { return a.name }

// Walk calls fn for every route of the area and its children with the
// path relative to the API root
func (a *Area) Walk(fn func(area, method, fullPath string)) {
	a.walk("", fn)
}

func (a *Area) walk(parent string, fn func(area, method, fullPath string)) {
	base := joinPath(parent, a.prefix)
	for _, r := range a.routes {
		fn(a.name, r.method, joinPath(base, r.path))
	}
	for _, c := range a.children {
		c.walk(base, fn)
	}
}

func (a *Area) mount(rg *gin.RouterGroup) {
	g := rg.Group(a.prefix, a.guards...)
	for _, r := range a.routes {
		g.Handle(r.method, r.path, r.handlers...)
	}
	for _, c := range a.children {
		c.mount(g)
	}
}

// Mount registers the areas under /api/<version> and returns the group
func Mount(engine *gin.Engine, version string, areas ...*Area) *gin.RouterGroup {
	if version == "" {
		version = DefaultVersion
	}
	api := engine.Group("/api/" + version)
	for _, a := range areas {
		a.mount(api)
	}
	return api
}

func joinPath(base, p string) string {
	if p == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return path.Join(base, p)
}
