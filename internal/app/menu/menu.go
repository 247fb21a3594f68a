// Package menu provides the per-track dropdown menu controller.
package menu

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// HiddenClass marks a dropdown as not visible.
const HiddenClass = "hidden"

// Config holds the class names the controller matches on.
type Config struct {
	TriggerClass string // Clicks on elements with this class never close menus
	MenuClass    string // Class carried by every dropdown
}

// Target is the element a click landed on.
type Target struct {
	ID      string
	Classes []string
}

// HasClass reports whether the target carries class.
func (t Target) HasClass(class string) bool {
	return lo.Contains(t.Classes, class)
}

// Dropdown is a per-track context menu.
type Dropdown struct {
	TrackID string
	Classes []string
}

// ElementID returns the element ID of the dropdown, "dropdown-<trackID>".
func (d *Dropdown) ElementID() string {
	return ElementID(d.TrackID)
}

// Visible reports whether the dropdown lacks the hidden class.
func (d *Dropdown) Visible() bool {
	return !lo.Contains(d.Classes, HiddenClass)
}

func (d *Dropdown) hasClass(class string) bool {
	return lo.Contains(d.Classes, class)
}

func (d *Dropdown) hide() {
	if d.Visible() {
		d.Classes = append(d.Classes, HiddenClass)
	}
}

func (d *Dropdown) toggle() {
	if d.Visible() {
		d.hide()
		return
	}
	d.Classes = lo.Without(d.Classes, HiddenClass)
}

// ElementID returns the dropdown element ID for a track.
func ElementID(trackID string) string {
	return "dropdown-" + trackID
}

// Controller toggles dropdowns and closes them on outside clicks.
type Controller struct {
	mu        sync.RWMutex
	config    Config
	dropdowns map[string]*Dropdown
}

// NewController creates a controller with no dropdowns.
func NewController(config Config) *Controller {
	return &Controller{
		config:    config,
		dropdowns: make(map[string]*Dropdown),
	}
}

// Register adds a hidden dropdown for trackID. Registering twice keeps the existing one.
func (c *Controller) Register(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.dropdowns[trackID]; ok {
		return
	}
	c.dropdowns[trackID] = &Dropdown{
		TrackID: trackID,
		Classes: []string{c.config.MenuClass, HiddenClass},
	}
}

// Toggle flips the visibility of the dropdown of trackID.
// Returns false when the track has no dropdown.
func (c *Controller) Toggle(trackID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.dropdowns[trackID]
	if !ok {
		return false
	}
	d.toggle()
	return true
}

// Click hides every visible dropdown unless the target is a menu trigger.
func (c *Controller) Click(target Target) {
	if target.HasClass(c.config.TriggerClass) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.dropdowns {
		if d.hasClass(c.config.MenuClass) {
			d.hide()
		}
	}
}

// Visible reports whether the dropdown of trackID is shown.
func (c *Controller) Visible(trackID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.dropdowns[trackID]
	return ok && d.Visible()
}

// Open returns the track IDs of all visible dropdowns, sorted.
func (c *Controller) Open() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	open := make([]string, 0)
	for id, d := range c.dropdowns {
		if d.Visible() {
			open = append(open, id)
		}
	}
	sort.Strings(open)
	return open
}

// Mount subscribes the outside-click handler to src.
// The returned func releases the subscription.
func (c *Controller) Mount(src ClickSource) (release func()) {
	return src.Subscribe(c.Click)
}

// Trigger returns the click target of the menu button of trackID.
func (c *Controller) Trigger(trackID string) Target {
	return Target{ID: "menu-button-" + trackID, Classes: []string{c.config.TriggerClass}}
}
