package client

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

/*

Common client settings

*/

const (
	brandName                      = "Reactor"
	templatePageSuffix             = "Page.tmpl.html"
	defaultTemplateDirectoryEnvVar = "TEMPLATE_DIRECTORY"
	defaultStaticDirectoryEnvVar   = "STATIC_DIRECTORY"
	applicationNameEnvVar          = "APPLICATION_NAME"
	applicationEnvEnvVar           = "APPLICATION_ENV"
	applicationVersionEnvVar       = "APPLICATION_VERSION"
	applicationInstanceEnvVar      = "APPLICATION_INSTANCE"
	applicationBuildEnvVar         = "APPLICATION_BUILD"
	iconPath                       = "/favicon.svg"
	reportBugPath                  = "/bugreport.html"
)

var (
	defaultStaticDirectory   = "static"
	defaultTemplateDirectory = filepath.Join(defaultStaticDirectory, "tmpl")
	staticResourcePaths      = map[string]string{
		iconPath:      filepath.Join("special", "reactor.svg"),
		"/robots.txt": filepath.Join("special", "robots.txt"),
		reportBugPath: filepath.Join("special", "report_bug.html"),
	}
)

// VerifyResources checks that the static and template
// directories can be found.
func VerifyResources() error {
	for _, dir := range []string{findStaticDirectory(), findTemplateDirectory()} {
		fi, err := os.Stat(dir)
		if err != nil {
			return errors.Wrap(err, "missing resources")
		}
		if !fi.IsDir() {
			return errors.Errorf("resource location %q not a directory", dir)
		}
	}
	return nil
}

/*

handle static resources

*/

func findStaticDirectory() string {
	if dir := os.Getenv(defaultStaticDirectoryEnvVar); dir != "" {
		return dir
	}
	return defaultStaticDirectory
}

// StaticHandler serves the request if its path is one of the
// known static resources, and reports whether it did.
func StaticHandler(w http.ResponseWriter, r *http.Request) bool {
	path, ok := staticResourcePaths[r.URL.Path]
	if ok {
		log.Debugf("Serving static resource for %q", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(findStaticDirectory(), path))
	}
	return ok
}

// StaticPaths lists the URL paths StaticHandler serves.
func StaticPaths() []string {
	paths := make([]string, 0, len(staticResourcePaths))
	for p := range staticResourcePaths {
		paths = append(paths, p)
	}
	return paths
}

/*

find and parse templates

*/

func findTemplateDirectory() string {
	if dir := os.Getenv(defaultTemplateDirectoryEnvVar); dir != "" {
		return dir
	}
	return defaultTemplateDirectory
}

// loadedTemplates is the cache of already-parsed templates
var (
	loadedTemplates = make(map[string]*template.Template)
	templateMutex   sync.Mutex
)

// loadPageTemplate does what you would expect: give it the
// template name, and it will find and parse the template file
// and return the resulting template.
func loadPageTemplate(name string) (*template.Template, error) {
	templateMutex.Lock()
	defer templateMutex.Unlock()
	if tmpl, ok := loadedTemplates[name]; ok {
		return tmpl, nil
	}
	fp := filepath.Join(findTemplateDirectory(), name+templatePageSuffix)
	tmpl, err := template.New(name + templatePageSuffix).Funcs(templateFuncs).ParseFiles(fp)
	if err != nil {
		return nil, err
	}
	loadedTemplates[name] = tmpl
	return tmpl, nil
}

// clearTemplates forgets every parsed template.
func clearTemplates() {
	templateMutex.Lock()
	defer templateMutex.Unlock()
	loadedTemplates = make(map[string]*template.Template)
}
