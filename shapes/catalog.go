package shapes

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localization keys of the default labels.
const (
	LabelNewUserTask       = "ST_New_User_Task_Label"
	LabelNewSystemTask     = "ST_New_System_Task_Label"
	LabelNewUserDecision   = "ST_New_User_Decision_Label"
	LabelNewSystemDecision = "ST_New_System_Decision_Label"
	LabelStart             = "ST_Start_Label"
	LabelEnd               = "ST_End_Label"
	LabelPrecondition      = "ST_Precondition_Label"
	LabelUserPersona       = "ST_User_Task_Persona_Label"
	LabelSystemPersona     = "ST_System_Task_Persona_Label"
)

// Localizer resolves a localization key to a display string. Unknown keys
// resolve to "".
type Localizer interface {
	Label(key string) string
}

// English holds the built-in default labels.
var English = map[string]string{
	LabelNewUserTask:       "User Task",
	LabelNewSystemTask:     "System Task",
	LabelNewUserDecision:   "User Decision",
	LabelNewSystemDecision: "System Decision",
	LabelStart:             "Start",
	LabelEnd:               "End",
	LabelPrecondition:      "Precondition",
	LabelUserPersona:       "User",
	LabelSystemPersona:     "System",
}

// Catalog is a Localizer backed by an x/text message catalog.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	keys    map[string]struct{}
}

// NewCatalog registers entries for tag and returns a Localizer printing them.
func NewCatalog(tag language.Tag, entries map[string]string) (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(tag))
	keys := make(map[string]struct{}, len(entries))
	for key, msg := range entries {
		if err := b.SetString(tag, key, msg); err != nil {
			return nil, fmt.Errorf("shapes: catalog entry %q: %w", key, err)
		}
		keys[key] = struct{}{}
	}
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		keys:    keys,
	}, nil
}

// DefaultCatalog returns the English catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(language.English, English)
	if err != nil {
		// English is a static table; SetString only fails on malformed messages.
		panic(err)
	}
	return c
}

// Tag returns the catalog's language.
func (c *Catalog) Tag() language.Tag { return c.tag }

// Label implements Localizer.
func (c *Catalog) Label(key string) string {
	if c == nil {
		return ""
	}
	if _, ok := c.keys[key]; !ok {
		return ""
	}
	return c.printer.Sprintf(key)
}

// label looks key up in l, tolerating a nil Localizer.
func label(l Localizer, key string) string {
	if l == nil {
		return ""
	}
	return l.Label(key)
}
