// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"sync"

	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/permissions"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown until Init sets the configured name.
const DefaultSiteName = "Directory"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserName   string
	IsAdmin    bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// LiveReload adds the dev reload script to the layout.
	LiveReload bool
}

var (
	mu         sync.RWMutex
	siteName   = DefaultSiteName
	liveReload bool
)

// Init sets the site-wide values every page shares.
// Call this once at startup from bootstrap.
func Init(name string, reload bool) {
	mu.Lock()
	defer mu.Unlock()
	if name != "" {
		siteName = name
	}
	liveReload = reload
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	mu.RLock()
	vm := BaseVM{SiteName: siteName, LiveReload: liveReload}
	mu.RUnlock()

	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	vm.CurrentPath = httpnav.CurrentPath(r)
	vm.CSRFToken = csrf.Token(r)

	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.UserName = u.Name
		vm.IsAdmin = permissions.Has(u.Permissions, permissions.Admin)
	}
	return vm
}
