// Package landing holds the content and view model of the signed-in landing
// page.
package landing

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/nfrund/gatehouse/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// GuestName is shown when the session carries no email.
const GuestName = "Guest"

type Testimonial struct {
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Quote    string `yaml:"quote"`
	VideoSrc string `yaml:"video_src"`
}

type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type SummaryItem struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Content is the static copy of the landing page.
type Content struct {
	Brand string `yaml:"brand"`
	Hero  struct {
		Title string `yaml:"title"`
		Lead  string `yaml:"lead"`
	} `yaml:"hero"`
	Summary      []SummaryItem `yaml:"summary"`
	About        string        `yaml:"about"`
	Testimonials []Testimonial `yaml:"testimonials"`
	Features     []Feature     `yaml:"features"`
}

// Load parses the embedded content.
func Load() (*Content, error) {
	return Parse(contentYAML)
}

// Parse parses landing content from YAML.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse landing content: %w", err)
	}
	if len(c.Testimonials) == 0 {
		return nil, fmt.Errorf("landing content has no testimonials")
	}
	return &c, nil
}

// Page is the view model of the landing page.
type Page struct {
	*Content
	Email    string
	MenuOpen bool
	Users    []domain.UserRow
	Year     int
}

// NewPage builds the view model for the signed-in email.
func NewPage(c *Content, email string, users []domain.UserRow, now time.Time) Page {
	return Page{
		Content: c,
		Email:   email,
		Users:   users,
		Year:    now.Year(),
	}
}

// DisplayName is the signed-in email, or GuestName.
func (p Page) DisplayName() string {
	if p.Email == "" {
		return GuestName
	}
	return p.Email
}

// ToggleMenu flips the navbar open flag.
func (p *Page) ToggleMenu() { p.MenuOpen = !p.MenuOpen }

// CloseMenu closes the navbar.
func (p *Page) CloseMenu() { p.MenuOpen = false }
