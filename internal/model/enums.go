package model

// Category is the closed set of equipment kinds tracked by the registry.
type Category string

const (
	CategoryCPU       Category = "CPU"
	CategoryMonitor   Category = "MONITOR"
	CategoryNotebook  Category = "NOTEBOOK"
	CategoryOnlyOne   Category = "ONLY_ONE"
	CategoryMouse     Category = "MOUSE"
	CategoryKeyboard  Category = "KEYBOARD"
	CategoryHeadset   Category = "HEADSET"
	CategoryCables    Category = "CABLES"
	CategoryRouter    Category = "ROUTER"
	CategorySwitch    Category = "SWITCH"
	CategoryServer    Category = "SERVER"
	CategoryProjector Category = "PROJECTOR"
	CategoryOther     Category = "OTHER"
)

// categoryLabels maps internal category tokens to display labels (v1).
// The token is the stored/wire value; the label is presentation only.
var categoryLabels = map[Category]string{
	CategoryCPU:       "CPU",
	CategoryMonitor:   "Monitor",
	CategoryNotebook:  "Notebook",
	CategoryOnlyOne:   "Only One",
	CategoryMouse:     "Mouse",
	CategoryKeyboard:  "Keyboard",
	CategoryHeadset:   "Headset",
	CategoryCables:    "Cables (specify)",
	CategoryRouter:    "Router",
	CategorySwitch:    "Switch",
	CategoryServer:    "Server",
	CategoryProjector: "Projector",
	CategoryOther:     "Other (specify)",
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label for c, falling back to the raw token.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory converts an external category token into a Category.
// Unknown tokens are rejected rather than defaulted.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", &InvalidEnumError{Kind: "category", Value: s}
	}
	return c, nil
}

// LifecycleState is the closed set of equipment lifecycle states.
type LifecycleState string

const (
	StateActive         LifecycleState = "ACTIVE"
	StateInactive       LifecycleState = "INACTIVE"
	StateInRepair       LifecycleState = "IN_REPAIR"
	StateDecommissioned LifecycleState = "DECOMMISSIONED"
	StateInMaintenance  LifecycleState = "IN_MAINTENANCE"
)

var stateLabels = map[LifecycleState]string{
	StateActive:         "Active",
	StateInactive:       "Inactive",
	StateInRepair:       "In Repair",
	StateDecommissioned: "Decommissioned",
	StateInMaintenance:  "In Maintenance",
}

func (s LifecycleState) Valid() bool {
	_, ok := stateLabels[s]
	return ok
}

func (s LifecycleState) Label() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseLifecycleState converts an external state token into a LifecycleState.
func ParseLifecycleState(s string) (LifecycleState, error) {
	st := LifecycleState(s)
	if !st.Valid() {
		return "", &InvalidEnumError{Kind: "state", Value: s}
	}
	return st, nil
}

// Site is the closed set of physical locations.
type Site string

const (
	SiteBuenosAires Site = "BUENOS_AIRES"
	SiteCordoba     Site = "CORDOBA"
	SiteTucuman     Site = "TUCUMAN"
	SiteMarDelPlata Site = "MAR_DEL_PLATA"
	SitePeru        Site = "PERU"
)

var siteLabels = map[Site]string{
	SiteBuenosAires: "Buenos Aires",
	SiteCordoba:     "Córdoba",
	SiteTucuman:     "Tucumán",
	SiteMarDelPlata: "Mar del Plata",
	SitePeru:        "Perú",
}

func (s Site) Valid() bool {
	_, ok := siteLabels[s]
	return ok
}

func (s Site) Label() string {
	if label, ok := siteLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseSite converts an external site token into a Site.
func ParseSite(s string) (Site, error) {
	site := Site(s)
	if !site.Valid() {
		return "", &InvalidEnumError{Kind: "site", Value: s}
	}
	return site, nil
}

// Verb is the closed set of audited action verbs.
type Verb string

const (
	VerbCreate         Verb = "CREATE"
	VerbEdit           Verb = "EDIT"
	VerbDelete         Verb = "DELETE"
	VerbView           Verb = "VIEW"
	VerbAssign         Verb = "ASSIGN"
	VerbUnassign       Verb = "UNASSIGN"
	VerbLogin          Verb = "LOGIN"
	VerbLoginFailed    Verb = "LOGIN_FAILED"
	VerbAccessDenied   Verb = "ACCESS_DENIED"
	VerbDownload       Verb = "DOWNLOAD"
	VerbDownloadFailed Verb = "DOWNLOAD_FAILED"
	VerbLogout         Verb = "LOGOUT"
)

// CriticalVerbs are the verbs surfaced by "important activity" views.
var CriticalVerbs = []Verb{VerbCreate, VerbEdit, VerbDelete}
