package client

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/ancientHacker/reactor.go/storage"
)

// templateFuncs are available in every page template.
var templateFuncs = template.FuncMap{
	"commas": commas,
}

// commas formats n with thousands separators.
func commas(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

/*

reactor pages

*/

// A templateReactorPage contains the values to fill the reactor
// page template.
type templateReactorPage struct {
	SessionID, ProcedureID    string
	Title, TopHead            string
	IconFile, CssFile, JsFile string
	Procedure                 string
	State                     reactor.State
	Instructions              []templateInstruction
	Regions                   []templateRegion
	ApplicationFooter         string
}

// A templateInstruction is one line of the procedure listing.
// Done instructions have been consumed; Skipped ones were
// consumed without effect.
type templateInstruction struct {
	Index             int
	Text              string
	Done, Next, Skips bool
}

// A templateRegion is one row of the on-space table.
type templateRegion struct {
	Index   int
	X, Y, Z string
	Volume  int64
}

// add reactor statics to the static list
func init() {
	staticResourcePaths["/reactor.js"] = filepath.Join("reactor", "reactor.js")
	staticResourcePaths["/reactor.css"] = filepath.Join("reactor", "reactor.css")
}

// ReactorPage executes the reactor page template over the
// session's procedure and reactor, and returns the page content
// as a string.  If there is an error, what's returned is the
// error page content.
func ReactorPage(sessionID string, procedure *storage.Procedure, r *reactor.Reactor) string {
	if procedure == nil || r == nil {
		return ErrorPage(fmt.Errorf("No procedure is loaded for session %q", sessionID))
	}
	state := r.State()
	instrs := r.Instructions()
	tis := make([]templateInstruction, len(instrs))
	for i, instr := range instrs {
		tis[i] = templateInstruction{
			Index: i + 1,
			Text:  instr.String(),
			Done:  i < state.Step,
			Next:  i == state.Step,
			Skips: r.Mode() == reactor.InitMode && !instr.Region.IsContainedBy(reactor.InitRegion),
		}
	}
	regions := r.Regions()
	trs := make([]templateRegion, len(regions))
	for i, m := range regions {
		trs[i] = templateRegion{
			Index:  i + 1,
			X:      m.X.String(),
			Y:      m.Y.String(),
			Z:      m.Z.String(),
			Volume: m.Volume(),
		}
	}

	trp := templateReactorPage{
		SessionID:         sessionID,
		ProcedureID:       procedure.ProcedureID,
		Title:             fmt.Sprintf("%s: %s", brandName, procedure.Name),
		TopHead:           "Reboot Procedure",
		IconFile:          iconPath,
		CssFile:           "/reactor.css",
		JsFile:            "/reactor.js",
		Procedure:         procedure.Name,
		State:             state,
		Instructions:      tis,
		Regions:           trs,
		ApplicationFooter: applicationFooter(),
	}
	return executePage("reactor", trp)
}

/*

error pages

*/

// A templateErrorPage contains the values to fill the error page
// template.
type templateErrorPage struct {
	Title, TopHead, Message string
	IconFile, ReportBugPage string
	ApplicationFooter       string
}

// ErrorPage returns error page content.
func ErrorPage(e error) string {
	tep := templateErrorPage{
		Title:             fmt.Sprintf("%s: Error", brandName),
		TopHead:           "Error Page",
		Message:           e.Error(),
		IconFile:          iconPath,
		ReportBugPage:     reportBugPath,
		ApplicationFooter: applicationFooter(),
	}

	tmpl, err := loadPageTemplate("error")
	if err != nil {
		return fmt.Sprintf("Couldn't load the %q template: %v", "error", err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, tep); err != nil {
		return fmt.Sprintf("A templating error has occurred: %v", err)
	}
	return buf.String()
}

/*

home page

*/

// A templateHomePage contains the values to fill the home page
// template.
type templateHomePage struct {
	SessionID, ProcedureID    string
	Title, TopHead            string
	IconFile, CssFile, JsFile string
	Procedures                []storage.ProcedureInfo
	ApplicationFooter         string
}

// add home statics to the static list
func init() {
	staticResourcePaths["/home.js"] = filepath.Join("home", "home.js")
	staticResourcePaths["/home.css"] = filepath.Join("home", "home.css")
}

// HomePage executes the home page template over the session's
// current procedure and the list of stored procedures.
func HomePage(sessionID string, procedureID string, procedures []storage.ProcedureInfo) string {
	thp := templateHomePage{
		SessionID:         sessionID,
		ProcedureID:       procedureID,
		Title:             fmt.Sprintf("%s: Home", brandName),
		TopHead:           brandName,
		IconFile:          iconPath,
		CssFile:           "/home.css",
		JsFile:            "/home.js",
		Procedures:        procedures,
		ApplicationFooter: applicationFooter(),
	}
	return executePage("home", thp)
}

// executePage fills the named page template, or returns the
// error page if that fails.
func executePage(name string, data interface{}) string {
	tmpl, err := loadPageTemplate(name)
	if err != nil {
		return ErrorPage(fmt.Errorf("Couldn't load the %q template: %v", name, err))
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return ErrorPage(err)
	}
	return buf.String()
}

/*

application footer

*/

// applicationFooter - the application footer that shows at the
// bottom of all pages.
func applicationFooter() string {
	appName := os.Getenv(applicationNameEnvVar)
	appEnv := os.Getenv(applicationEnvEnvVar)
	appVersion := os.Getenv(applicationVersionEnvVar)
	appInstance := os.Getenv(applicationInstanceEnvVar)
	appBuild := os.Getenv(applicationBuildEnvVar)

	if appName == "" {
		appName = brandName
	}
	if appEnv == "" {
		appEnv = "local"
	}
	if appVersion != "" {
		appVersion = " " + appVersion
	}
	if len(appBuild) >= 7 {
		appBuild = appBuild[:7]
	}
	if appInstance != "" {
		appInstance = " (instance " + appInstance + ")"
	}

	switch appEnv {
	case "local":
		return "[" + appName + " local]"
	case "dev":
		return "[" + appName + " CI/CD]"
	case "stg":
		return "[" + appName + appVersion + " <" + appBuild + ">]"
	case "prd":
		return "[" + appName + appVersion + " <" + appBuild + ">" + appInstance + "]"
	}
	return "[" + appName + " <??>]"
}
